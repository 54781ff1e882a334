package ports

import (
	"context"

	"github.com/aretw0/quill/pkg/domain"
)

// Presenter is the presentation collaborator: it disables triggers while busy
// and shows notices to the user.
type Presenter interface {
	SetBusy(busy bool)
	Notify(ctx context.Context, notice domain.Notice)
}

// NopPresenter discards everything.
type NopPresenter struct{}

func (NopPresenter) SetBusy(bool)                          {}
func (NopPresenter) Notify(context.Context, domain.Notice) {}
