package handlers

import (
	"time"

	"vidserve/internal/store"
	"vidserve/internal/transcoder"
)

type Handlers struct {
	store      *store.Store
	catalog    *store.Catalog
	transcoder *transcoder.Transcoder
	startedAt  time.Time
}

func New(st *store.Store, cat *store.Catalog, trans *transcoder.Transcoder) *Handlers {
	return &Handlers{
		store:      st,
		catalog:    cat,
		transcoder: trans,
		startedAt:  time.Now(),
	}
}


