package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/afr-platform/internal/domain"
)

func fp(els ...domain.ActionableElement) domain.FingerprintPayload {
	return domain.FingerprintPayload{Kind: domain.KindFingerprint, Actionables: els}
}

func el(selector, text, intent string, enabled bool) domain.ActionableElement {
	return domain.ActionableElement{Selector: selector, Text: text, Intent: intent, Enabled: enabled}
}

func TestReduceLastWriteWins(t *testing.T) {
	// Поздний снапшот перезаписывает состояние того же селектора.
	st := Reduce([]domain.FingerprintPayload{
		fp(el("#submit", "Submit", "submit", true), el("#cancel", "Cancel", "cancel", true)),
		fp(el("#submit", "Submit", "submit", false)),
	})

	require.Equal(t, 2, st.Len())
	got, ok := st.Get("#submit")
	require.True(t, ok)
	assert.False(t, got.Enabled)
}

func TestReduceSkipsIncompleteElements(t *testing.T) {
	st := Reduce([]domain.FingerprintPayload{fp(
		el("#ok", "OK", "submit", true),
		el("", "orphan text", "nav", true),   // нет селектора
		el("a:nth-child(3)", "", "nav", true), // нет текста
	)})
	assert.Equal(t, 1, st.Len())
}

func TestReduceEmpty(t *testing.T) {
	assert.Equal(t, 0, Reduce(nil).Len())
}

func TestDiffIdentity(t *testing.T) {
	// diff(A, A) — полностью пустой результат.
	st := Reduce([]domain.FingerprintPayload{fp(
		el("#submit", "Submit", "submit", true),
		el("#cancel", "Cancel", "cancel", true),
	)})

	res := Diff(st, st)
	assert.Empty(t, res.Changes)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Disabled)
	assert.Empty(t, res.ProbableCauses)
	assert.Equal(t, 0, res.Summary.TotalChanges)
}

func TestDiffDisabledScenario(t *testing.T) {
	a := Reduce([]domain.FingerprintPayload{fp(el("#submit", "Submit", "submit", true))})
	b := Reduce([]domain.FingerprintPayload{fp(el("#submit", "Submit", "submit", false))})

	res := Diff(a, b)

	require.Len(t, res.Changes, 1)
	c := res.Changes[0]
	assert.Equal(t, "#submit", c.Selector)
	assert.Nil(t, c.Changes.Text)
	assert.Nil(t, c.Changes.Intent)
	require.NotNil(t, c.Changes.Enabled)
	assert.Equal(t, domain.BoolDelta{From: true, To: false}, *c.Changes.Enabled)

	require.Len(t, res.Disabled, 1)
	assert.Equal(t, domain.DisabledElement{Selector: "#submit", Text: "Submit", Intent: "submit"}, res.Disabled[0])

	require.NotEmpty(t, res.ProbableCauses)
	assert.Equal(t, "disabled_elements", res.ProbableCauses[0].Type)
	assert.Equal(t, domain.SeverityHigh, res.ProbableCauses[0].Severity)
}

func TestDiffRemovalTriggersMissingCause(t *testing.T) {
	a := Reduce([]domain.FingerprintPayload{fp(
		el("#submit", "Submit", "submit", true),
		el("#extra", "Extra", "nav", true),
	)})
	b := Reduce([]domain.FingerprintPayload{fp(el("#submit", "Submit", "submit", true))})

	res := Diff(a, b)

	require.Len(t, res.Removed, 1)
	assert.Equal(t, "#extra", res.Removed[0].Selector)

	var missing *domain.ProbableCause
	for i := range res.ProbableCauses {
		if res.ProbableCauses[i].Type == "missing_elements" {
			missing = &res.ProbableCauses[i]
		}
	}
	require.NotNil(t, missing)
	assert.Equal(t, domain.SeverityHigh, missing.Severity)
}

func TestDiffAdded(t *testing.T) {
	a := Reduce([]domain.FingerprintPayload{fp(el("#submit", "Submit", "submit", true))})
	b := Reduce([]domain.FingerprintPayload{fp(
		el("#submit", "Submit", "submit", true),
		el("#new", "New feature", "nav", true),
	)})

	res := Diff(a, b)
	require.Len(t, res.Added, 1)
	assert.Equal(t, "#new", res.Added[0].Selector)
	// Само по себе добавление элементов причин не порождает.
	assert.Empty(t, res.ProbableCauses)
}

func TestDiffCategoriesDisjoint(t *testing.T) {
	a := Reduce([]domain.FingerprintPayload{fp(
		el("#kept", "Keep", "nav", true),
		el("#gone", "Gone", "nav", true),
		el("#renamed", "Old label", "submit", true),
	)})
	b := Reduce([]domain.FingerprintPayload{fp(
		el("#kept", "Keep", "nav", true),
		el("#renamed", "New label", "submit", true),
		el("#fresh", "Fresh", "nav", true),
	)})

	res := Diff(a, b)

	seen := map[string]string{}
	categorize := func(cat string, selectors ...string) {
		for _, s := range selectors {
			prev, dup := seen[s]
			require.Falsef(t, dup, "selector %s in both %s and %s", s, prev, cat)
			seen[s] = cat
		}
	}
	for _, c := range res.Changes {
		categorize("changed", c.Selector)
	}
	for _, r := range res.Removed {
		categorize("removed", r.Selector)
	}
	for _, a := range res.Added {
		categorize("added", a.Selector)
	}

	assert.Equal(t, "changed", seen["#renamed"])
	assert.Equal(t, "removed", seen["#gone"])
	assert.Equal(t, "added", seen["#fresh"])
	assert.NotContains(t, seen, "#kept")
}

func TestDiffCausePriorityOrder(t *testing.T) {
	// Все три правила сработали: порядок выдачи фиксирован, а не по severity.
	a := Reduce([]domain.FingerprintPayload{fp(
		el("#submit", "Submit", "submit", true),
		el("#gone", "Gone", "nav", true),
		el("#label", "Before", "nav", true),
	)})
	b := Reduce([]domain.FingerprintPayload{fp(
		el("#submit", "Submit", "submit", false),
		el("#label", "After", "nav", true),
	)})

	res := Diff(a, b)
	require.Len(t, res.ProbableCauses, 3)
	assert.Equal(t, "disabled_elements", res.ProbableCauses[0].Type)
	assert.Equal(t, "text_changes", res.ProbableCauses[1].Type)
	assert.Equal(t, "missing_elements", res.ProbableCauses[2].Type)
}

func TestInferCausesExampleLimits(t *testing.T) {
	res := &domain.DiffResult{}
	for i := 0; i < 5; i++ {
		res.Disabled = append(res.Disabled, domain.DisabledElement{Selector: "#d"})
		res.Removed = append(res.Removed, domain.ActionableElement{Selector: "#r", Text: "x"})
		res.Changes = append(res.Changes, domain.ChangedElement{
			Selector: "#c",
			Changes:  domain.FieldChanges{Text: &domain.StringDelta{From: "a", To: "b"}},
		})
	}

	causes := InferCauses(res)
	require.Len(t, causes, 3)
	assert.Len(t, causes[0].Elements, 3)
	assert.Len(t, causes[1].Examples, 2)
	assert.Len(t, causes[2].Elements, 3)
}

func TestDiffEnabledBecameTrueIsNotDisabled(t *testing.T) {
	a := Reduce([]domain.FingerprintPayload{fp(el("#submit", "Submit", "submit", false))})
	b := Reduce([]domain.FingerprintPayload{fp(el("#submit", "Submit", "submit", true))})

	res := Diff(a, b)
	require.Len(t, res.Changes, 1)
	assert.Empty(t, res.Disabled)
	assert.Empty(t, res.ProbableCauses)
}
