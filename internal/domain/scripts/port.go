package scripts

import "context"

// Repository port for persisting saved scripts per user.
// List returns newest first.
type Repository interface {
	Save(ctx context.Context, s *SavedScript) error
	Get(ctx context.Context, user string, id ScriptID) (*SavedScript, error)
	List(ctx context.Context, user string) ([]*SavedScript, error)
	Count(ctx context.Context, user string) (int, error)
	Delete(ctx context.Context, user string, id ScriptID) error
	DeleteAll(ctx context.Context, user string) (int, error)
}
