package domain

// Severity вероятной причины. Порядок причин фиксирован правилами,
// по severity ничего не пересортировывается.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// StringDelta / BoolDelta — изменение одного отслеживаемого поля элемента.
type StringDelta struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type BoolDelta struct {
	From bool `json:"from"`
	To   bool `json:"to"`
}

// FieldChanges покрывает только реально отличившиеся поля.
type FieldChanges struct {
	Text    *StringDelta `json:"text,omitempty"`
	Intent  *StringDelta `json:"intent,omitempty"`
	Enabled *BoolDelta   `json:"enabled,omitempty"`
}

// ChangedElement — элемент, присутствующий в обоих ранах, но с отличиями.
// Selector/Text/Intent/Enabled — финальное состояние из кандидатного рана (B).
type ChangedElement struct {
	Selector string       `json:"selector"`
	Text     string       `json:"text,omitempty"`
	Intent   string       `json:"intent,omitempty"`
	Enabled  bool         `json:"enabled"`
	Changes  FieldChanges `json:"changes"`
}

// DisabledElement — элемент, перешедший enabled true→false.
// Значения берутся из кандидатного рана.
type DisabledElement struct {
	Selector string `json:"selector"`
	Text     string `json:"text,omitempty"`
	Intent   string `json:"intent,omitempty"`
}

// TextChangeExample — пример для причины text_changes.
type TextChangeExample struct {
	Selector   string      `json:"selector"`
	TextChange StringDelta `json:"textChange"`
}

// ProbableCause — одно rule-derived объяснение наблюдаемых отличий.
// Причины аддитивны и не взаимоисключающи. Elements несет до 3 примеров:
// []DisabledElement для disabled_elements, []ActionableElement для
// missing_elements.
type ProbableCause struct {
	Type     string              `json:"type"`
	Message  string              `json:"message"`
	Elements interface{}         `json:"elements,omitempty"`
	Examples []TextChangeExample `json:"examples,omitempty"` // только text_changes
	Severity string              `json:"severity"`
}

// DiffSummary — счетчики для быстрой оценки масштаба расхождений.
type DiffSummary struct {
	TotalChanges int `json:"total_changes"`
	Changes      int `json:"changes"`
	Removed      int `json:"removed"`
	Added        int `json:"added"`
	Disabled     int `json:"disabled"`
}

// DiffResult — структурная дельта двух ранов по финальному состоянию
// отслеживаемых элементов, ключ сравнения — равенство селекторов.
type DiffResult struct {
	Run1ID         string              `json:"run1_id,omitempty"`
	Run2ID         string              `json:"run2_id,omitempty"`
	Summary        DiffSummary         `json:"summary"`
	Changes        []ChangedElement    `json:"changes"`
	Removed        []ActionableElement `json:"removed"`
	Added          []ActionableElement `json:"added"`
	Disabled       []DisabledElement   `json:"disabled"`
	ProbableCauses []ProbableCause     `json:"probable_causes"`
}
