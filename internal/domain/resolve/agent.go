package resolve

import (
	"github.com/crmagente/ranking/internal/domain/record"
)

// identityFields is the priority order for the submitting agent's raw
// name across collection generations. First present wins.
var identityFields = []string{
	"agenteNombre",
	"agente",
	"nombreAgente",
	"createdBy",
	"registeredBy",
	"vendedor",
}

// AgentName resolves the raw (un-normalized) agent name of a record.
// ok is false when no identity field carries a non-empty string; such
// records bucket under the reserved unknown identity.
func AgentName(s record.Sale) (string, bool) {
	return s.FirstString(identityFields...)
}
