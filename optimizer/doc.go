// Package optimizer implements the strategy-pluggable gradient-descent
// state machine of the embedding engine.
//
// Each iteration runs a fixed pipeline: gradient → direction → step-size →
// update (direction ⊙ step-size) → proposed coordinates → validation →
// commit or rollback → after-step bookkeeping. The four roles are
// swappable strategies sharing one lifecycle (Init, Calculate, optional
// Validate, optional AfterStep). Validation is two-phase: every validator's
// verdict is collected first, then every strategy's AfterStep runs with the
// single aggregated outcome, so no strategy ever advances its history on a
// rejected proposal.
//
// Rejected steps are internal control flow, not errors: the proposal is
// discarded, the pre-step coordinates stand, and the rejection count is the
// only trace. Only configuration problems abort a run.
package optimizer
