// Package diff — движок семантического сравнения двух ранов: свертка
// fingerprint-снапшотов в финальное состояние элементов, структурная дельта
// и вывод ранжированных вероятных причин.
package diff

import (
	"fmt"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// State — финальное наблюдаемое состояние отслеживаемых элементов рана:
// selector → элемент, плюс порядок первого появления селектора, чтобы выдача
// сравнения была детерминированной.
type State struct {
	order []string
	elems map[string]domain.ActionableElement
}

// NewState создает пустое состояние (валидный вход для Compare).
func NewState() *State {
	return &State{elems: make(map[string]domain.ActionableElement)}
}

func (s *State) set(el domain.ActionableElement) {
	if _, seen := s.elems[el.Selector]; !seen {
		s.order = append(s.order, el.Selector)
	}
	s.elems[el.Selector] = el
}

// Get возвращает финальное состояние элемента по селектору.
func (s *State) Get(selector string) (domain.ActionableElement, bool) {
	el, ok := s.elems[selector]
	return el, ok
}

// Len — число отслеживаемых селекторов.
func (s *State) Len() int { return len(s.elems) }

// Reduce сворачивает упорядоченную по времени последовательность dom_fp
// снапшотов в финальное состояние: явный left-fold с last-write-wins —
// более поздний снапшот того же селектора перезаписывает ранний.
// Участвуют только элементы, несущие и selector, и text.
func Reduce(fps []domain.FingerprintPayload) *State {
	st := NewState()
	for _, fp := range fps {
		for _, el := range fp.Actionables {
			if el.Selector == "" || el.Text == "" {
				continue
			}
			st.set(el)
		}
	}
	return st
}

// Compare строит структурную дельту состояния a (baseline) против b
// (кандидат). Ключ сопоставления — равенство селекторов; каждый селектор
// попадает ровно в одну из категорий changed/removed/added.
func Compare(a, b *State) *domain.DiffResult {
	res := &domain.DiffResult{
		Changes:        []domain.ChangedElement{},
		Removed:        []domain.ActionableElement{},
		Added:          []domain.ActionableElement{},
		Disabled:       []domain.DisabledElement{},
		ProbableCauses: []domain.ProbableCause{},
	}

	for _, selector := range a.order {
		elA := a.elems[selector]
		elB, ok := b.elems[selector]
		if !ok {
			res.Removed = append(res.Removed, elA)
			continue
		}

		var changes domain.FieldChanges
		dirty := false
		if elA.Text != elB.Text {
			changes.Text = &domain.StringDelta{From: elA.Text, To: elB.Text}
			dirty = true
		}
		if elA.Intent != elB.Intent {
			changes.Intent = &domain.StringDelta{From: elA.Intent, To: elB.Intent}
			dirty = true
		}
		if elA.Enabled != elB.Enabled {
			changes.Enabled = &domain.BoolDelta{From: elA.Enabled, To: elB.Enabled}
			dirty = true
			if !elB.Enabled {
				// Переход true→false дополнительно попадает в disabled.
				res.Disabled = append(res.Disabled, domain.DisabledElement{
					Selector: selector,
					Text:     elB.Text,
					Intent:   elB.Intent,
				})
			}
		}

		if dirty {
			res.Changes = append(res.Changes, domain.ChangedElement{
				Selector: selector,
				Text:     elB.Text,
				Intent:   elB.Intent,
				Enabled:  elB.Enabled,
				Changes:  changes,
			})
		}
	}

	for _, selector := range b.order {
		if _, ok := a.elems[selector]; !ok {
			res.Added = append(res.Added, b.elems[selector])
		}
	}

	res.Summary = domain.DiffSummary{
		TotalChanges: len(res.Changes) + len(res.Removed) + len(res.Added),
		Changes:      len(res.Changes),
		Removed:      len(res.Removed),
		Added:        len(res.Added),
		Disabled:     len(res.Disabled),
	}
	return res
}

// InferCauses выводит вероятные причины по фиксированным правилам.
// Порядок выдачи фиксирован приоритетом правил, по severity ничего
// не пересортировывается; причины аддитивны. Пустой список — валидный исход.
func InferCauses(res *domain.DiffResult) []domain.ProbableCause {
	causes := []domain.ProbableCause{}

	if len(res.Disabled) > 0 {
		causes = append(causes, domain.ProbableCause{
			Type:     "disabled_elements",
			Message:  fmt.Sprintf("%d element(s) became disabled", len(res.Disabled)),
			Elements: head(res.Disabled, 3),
			Severity: domain.SeverityHigh,
		})
	}

	var textChanges []domain.TextChangeExample
	for _, c := range res.Changes {
		if c.Changes.Text != nil {
			textChanges = append(textChanges, domain.TextChangeExample{
				Selector:   c.Selector,
				TextChange: *c.Changes.Text,
			})
		}
	}
	if len(textChanges) > 0 {
		causes = append(causes, domain.ProbableCause{
			Type:     "text_changes",
			Message:  fmt.Sprintf("%d element(s) had text changes", len(textChanges)),
			Examples: head(textChanges, 2),
			Severity: domain.SeverityMedium,
		})
	}

	if len(res.Removed) > 0 {
		causes = append(causes, domain.ProbableCause{
			Type:     "missing_elements",
			Message:  fmt.Sprintf("%d element(s) were removed", len(res.Removed)),
			Elements: head(res.Removed, 3),
			Severity: domain.SeverityHigh,
		})
	}

	return causes
}

// Diff — полный проход: сравнение плюс причины.
func Diff(a, b *State) *domain.DiffResult {
	res := Compare(a, b)
	res.ProbableCauses = InferCauses(res)
	return res
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
