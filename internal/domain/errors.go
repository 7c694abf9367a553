package domain

import "errors"

// Сентинели для маппинга в HTTP-статусы на уровне хендлеров.
// Сервисы оборачивают их через fmt.Errorf("...: %w", ...).
var (
	// ErrNotFound — ран/кифрейм не существует, либо для диффа нет ни одного
	// dom_fp события, либо нет предыдущего рана с тем же URL.
	ErrNotFound = errors.New("not found")

	// ErrValidation — нарушение схемы ингест-батча. Батч отклоняется целиком,
	// частичных записей не бывает.
	ErrValidation = errors.New("schema violation")
)
