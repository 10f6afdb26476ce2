package anim

import "errors"

var (
	ErrAssetParse       = errors.New("anim: malformed asset document")
	ErrNotFound         = errors.New("anim: animator not found")
	ErrEmptyStateSet    = errors.New("anim: piece has no states")
	ErrUnresolvedPiece  = errors.New("anim: skeletal piece references unknown piece")
	ErrRenderOrderRange = errors.New("anim: render order out of range")
	ErrUnknownState     = errors.New("anim: unknown state")
	ErrUnknownPiece     = errors.New("anim: unknown piece")
	ErrNotConstructed   = errors.New("anim: instance has no animator")
)
