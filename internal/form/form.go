// Package form renders add/edit dialogs from a declarative field list,
// optionally split across a linear sequence of named steps. It owns field
// editing and navigation only; validation belongs to the calling screen.
package form

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
)

// Kind selects the input widget for a field.
type Kind int

const (
	Text Kind = iota
	Number
	Email
	Password
	Select
)

// Field describes one editable input.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Options  []string
	Multiple bool
	Required bool
	Value    []string
	Error    string

	cursor int // active option for select fields
}

func (f *Field) scalar() string {
	if len(f.Value) == 0 {
		return ""
	}
	return f.Value[0]
}

// Step names a contiguous range of fields.
type Step struct {
	Title  string
	Fields []int // indexes into the form's field list
}

// ValidateFunc checks the fields of one step before Next advances. A nil
// hook means the step always advances; whether to validate is the caller's
// choice, not the form's.
type ValidateFunc func(step int, fields []*Field) error

// Form is a multi-step field editor. With no steps every field belongs to
// one implicit step.
type Form struct {
	Title    string
	fields   []Field
	steps    []Step
	step     int
	active   int // index into the current step's field list
	input    textinput.Model
	validate ValidateFunc
}

// New builds a form over the given fields. When steps is empty a single
// step spanning all fields is synthesized.
func New(title string, fields []Field, steps []Step) *Form {
	if len(steps) == 0 {
		all := make([]int, len(fields))
		for i := range fields {
			all[i] = i
		}
		steps = []Step{{Title: title, Fields: all}}
	}
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 256
	input.Focus()

	f := &Form{Title: title, fields: fields, steps: steps, input: input}
	f.syncInput()
	return f
}

// SetValidate installs the per-step validation hook.
func (f *Form) SetValidate(fn ValidateFunc) { f.validate = fn }

// Step returns the current zero-indexed step.
func (f *Form) Step() int { return f.step }

// StepCount returns the number of steps.
func (f *Form) StepCount() int { return len(f.steps) }

// StepTitle returns the current step's title.
func (f *Form) StepTitle() string { return f.steps[f.step].Title }

// StepFields returns pointers to the fields visible on the current step;
// fields outside the active step are not shown.
func (f *Form) StepFields() []*Field {
	out := make([]*Field, 0, len(f.steps[f.step].Fields))
	for _, idx := range f.steps[f.step].Fields {
		out = append(out, &f.fields[idx])
	}
	return out
}

// ActiveField returns the field currently being edited.
func (f *Form) ActiveField() *Field {
	fields := f.StepFields()
	if f.active < 0 || f.active >= len(fields) {
		return nil
	}
	return fields[f.active]
}

// ActiveIndex returns the position of the active field within the step.
func (f *Form) ActiveIndex() int { return f.active }

// Input exposes the text input for rendering.
func (f *Form) Input() textinput.Model { return f.input }

// UpdateInput feeds a message to the underlying text input for non-select
// fields. Select fields ignore typed input.
func (f *Form) UpdateInput(msg any) {
	field := f.ActiveField()
	if field == nil || field.Kind == Select {
		return
	}
	f.input, _ = f.input.Update(msg)
}

// commitActive stores the text input's value into the active field.
func (f *Form) commitActive() {
	field := f.ActiveField()
	if field == nil || field.Kind == Select {
		return
	}
	value := strings.TrimSpace(f.input.Value())
	if value == "" {
		field.Value = nil
	} else {
		field.Value = []string{value}
	}
}

// syncInput loads the active field's value into the text input.
func (f *Form) syncInput() {
	field := f.ActiveField()
	if field == nil {
		return
	}
	f.input.SetValue(field.scalar())
	f.input.Placeholder = field.Label
	if field.Kind == Password {
		f.input.EchoMode = textinput.EchoPassword
	} else {
		f.input.EchoMode = textinput.EchoNormal
	}
	f.input.CursorEnd()
}

// NextField advances to the next field in the step; at the last field it
// behaves like Next. It reports whether the step (or form) completed.
func (f *Form) NextField() (done bool, err error) {
	f.commitActive()
	fields := f.StepFields()
	if f.active < len(fields)-1 {
		f.active++
		f.syncInput()
		return false, nil
	}
	return f.Next()
}

// PrevField moves back one field; at the first field it behaves like Back.
func (f *Form) PrevField() {
	f.commitActive()
	if f.active > 0 {
		f.active--
		f.syncInput()
		return
	}
	f.Back()
}

// Next validates the current step (if a hook is installed) and advances to
// the next one. On the final step it reports done=true. Validation errors
// keep the form where it is.
func (f *Form) Next() (done bool, err error) {
	f.commitActive()
	if f.validate != nil {
		if err := f.validate(f.step, f.StepFields()); err != nil {
			return false, err
		}
	}
	if f.step >= len(f.steps)-1 {
		return true, nil
	}
	f.step++
	f.active = 0
	f.syncInput()
	return false, nil
}

// Back returns to the previous step. On the first step it does nothing.
func (f *Form) Back() {
	f.commitActive()
	if f.step == 0 {
		return
	}
	f.step--
	f.active = 0
	f.syncInput()
}

// CycleOption moves the selection cursor on a select field by delta and,
// for single selects, replaces the value with the highlighted option.
func (f *Form) CycleOption(delta int) {
	field := f.ActiveField()
	if field == nil || field.Kind != Select || len(field.Options) == 0 {
		return
	}
	field.cursor = (field.cursor + delta + len(field.Options)) % len(field.Options)
	if !field.Multiple {
		field.Value = []string{field.Options[field.cursor]}
	}
}

// ToggleOption toggles the highlighted option's membership on a
// multi-select field; on a single select it just picks it.
func (f *Form) ToggleOption() {
	field := f.ActiveField()
	if field == nil || field.Kind != Select || len(field.Options) == 0 {
		return
	}
	option := field.Options[field.cursor]
	if !field.Multiple {
		field.Value = []string{option}
		return
	}
	for i, v := range field.Value {
		if v == option {
			field.Value = append(field.Value[:i], field.Value[i+1:]...)
			return
		}
	}
	field.Value = append(field.Value, option)
}

// OptionCursor returns the highlighted option index of a select field.
func (f *Form) OptionCursor() int {
	field := f.ActiveField()
	if field == nil {
		return 0
	}
	return field.cursor
}

// Values exports all field values keyed by field name. Scalars are
// single-element slices; multi-selects carry every chosen option.
func (f *Form) Values() map[string][]string {
	f.commitActive()
	out := make(map[string][]string, len(f.fields))
	for _, field := range f.fields {
		out[field.Name] = append([]string(nil), field.Value...)
	}
	return out
}

// Scalar returns the first value of the named field, or "".
func (f *Form) Scalar(name string) string {
	for i := range f.fields {
		if f.fields[i].Name == name {
			return f.fields[i].scalar()
		}
	}
	return ""
}

// RequireFields is a ready-made validate hook rejecting empty required
// fields, for the screens that opt into validation.
func RequireFields(step int, fields []*Field) error {
	for _, field := range fields {
		if field.Required && len(field.Value) == 0 {
			return fmt.Errorf("%s is required", field.Label)
		}
	}
	return nil
}
