package employee

import "context"

// Repository defines the read-only operations over the employees collection.
type Repository interface {
	ByPhone(ctx context.Context, phone string) (*Employee, error)
	ByName(ctx context.Context, name string) (*Employee, error)
	Subordinates(ctx context.Context, managerName string) ([]*Employee, error)
}
