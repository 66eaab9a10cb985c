package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/internal/config"
	"github.com/EbbDrop/Perma/pkg/core/services"
	"github.com/EbbDrop/Perma/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.TxRunner
	Logger   *zap.Logger
	Ctx      context.Context
	Location *time.Location

	// ActorRef is the --as flag: the name or id of the acting user
	ActorRef string
}

// Actor resolves the acting user from the --as flag
func (app *AppContext) Actor() (db.User, error) {
	return services.ResolveActor(app.Ctx, app.Database, app.Logger, app.ActorRef)
}

// ResolveUserRef resolves a command argument naming a user in the actor's
// group, accepting a display name or an id
func (app *AppContext) ResolveUserRef(actor db.User, ref string) (db.User, error) {
	users, err := services.ListUsers(app.Ctx, app.Database, actor, app.Logger)
	if err != nil {
		return db.User{}, err
	}
	for _, u := range users {
		if u.ID == ref || u.Name == ref {
			return u, nil
		}
	}
	return db.User{}, fmt.Errorf("%w: no user %q in the group", db.ErrInvalidReference, ref)
}

// ResolveTypeRef resolves a command argument naming a slot type in the
// actor's group, accepting a name or an id
func (app *AppContext) ResolveTypeRef(actor db.User, ref string) (db.SlotType, error) {
	var types []db.SlotType
	err := app.Database.InTx(app.Ctx, func(ctx context.Context, s db.Store) error {
		var err error
		types, err = s.ListSlotTypesByGroup(ctx, actor.GroupID)
		return err
	})
	if err != nil {
		return db.SlotType{}, err
	}
	for _, t := range types {
		if t.ID == ref || t.Name == ref {
			return t, nil
		}
	}
	return db.SlotType{}, fmt.Errorf("%w: no slot type %q in the group", db.ErrInvalidReference, ref)
}
