package postgres

import (
	"kind-match/internal/applications"
	"kind-match/internal/conversations"
	"kind-match/internal/credits"
	"kind-match/internal/interactions"
	"kind-match/internal/matches"
)

var (
	_ credits.Ledger            = (*Store)(nil)
	_ interactions.Repository   = (*Store)(nil)
	_ applications.Repository   = (*Store)(nil)
	_ applications.ProfileStore = (*Store)(nil)
	_ matches.Repository        = (*Store)(nil)
	_ conversations.Repository  = (*Store)(nil)
)
