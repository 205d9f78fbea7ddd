package membership

import (
	"context"

	groupaliasstore "github.com/dalemusser/mozillians/internal/app/store/groupaliases"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	membershipstore "github.com/dalemusser/mozillians/internal/app/store/memberships"
	notificationstore "github.com/dalemusser/mozillians/internal/app/store/notifications"
	"github.com/dalemusser/mozillians/internal/app/system/auditlog"
	"github.com/dalemusser/mozillians/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NewForDB wires the service to the MongoDB stores in db. Multi-document
// steps run in a transaction when the deployment supports one.
func NewForDB(db *mongo.Database, audit *auditlog.Logger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return New(Deps{
		Groups:      groupstore.New(db),
		Memberships: membershipstore.New(db),
		Aliases:     groupaliasstore.New(db),
		Notices:     notificationstore.New(db),
		Audit:       audit,
		Tx: func(ctx context.Context, fn func(context.Context) error) error {
			return txn.Run(ctx, db, log, fn)
		},
		Log: log,
	})
}
