package usage

import "github.com/kailas-cloud/geodex/internal/domain"

// BudgetReader provides read-only access to the embedding token budget.
type BudgetReader interface {
	Daily() domain.TokenUsage
	Monthly() domain.TokenUsage
}
