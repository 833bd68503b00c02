package form_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"crmdesk/internal/form"
)

func leadFields() []form.Field {
	return []form.Field{
		{Name: "name", Label: "Name", Required: true},
		{Name: "email", Label: "Email", Kind: form.Email},
		{Name: "status", Label: "Status", Kind: form.Select, Options: []string{"new", "contacted", "qualified"}},
		{Name: "tags", Label: "Tags", Kind: form.Select, Multiple: true, Options: []string{"vip", "inbound", "partner"}},
	}
}

func typeText(f *form.Form, text string) {
	for _, r := range text {
		f.UpdateInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestSingleStepFormShowsAllFields(t *testing.T) {
	f := form.New("Add Lead", leadFields(), nil)

	require.Equal(t, 1, f.StepCount())
	require.Len(t, f.StepFields(), 4)
	require.Equal(t, "Name", f.ActiveField().Label)
}

func TestStepsLimitVisibleFields(t *testing.T) {
	steps := []form.Step{
		{Title: "Basics", Fields: []int{0, 1}},
		{Title: "Classification", Fields: []int{2, 3}},
	}
	f := form.New("Add Lead", leadFields(), steps)

	require.Equal(t, 2, f.StepCount())
	require.Equal(t, "Basics", f.StepTitle())
	require.Len(t, f.StepFields(), 2)
	require.Equal(t, "Name", f.StepFields()[0].Label)

	done, err := f.Next()
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, "Classification", f.StepTitle())
	require.Equal(t, "Status", f.StepFields()[0].Label)

	done, err = f.Next()
	require.NoError(t, err)
	require.True(t, done, "Next on the final step completes the form")

	f.Back()
	require.Equal(t, "Basics", f.StepTitle())
	f.Back()
	require.Equal(t, "Basics", f.StepTitle(), "Back on the first step stays put")
}

func TestFieldNavigationCollectsValues(t *testing.T) {
	f := form.New("Add Lead", leadFields(), nil)

	typeText(f, "Acme")
	done, err := f.NextField()
	require.NoError(t, err)
	require.False(t, done)

	typeText(f, "sales@acme.io")
	done, err = f.NextField()
	require.NoError(t, err)
	require.False(t, done)

	values := f.Values()
	require.Equal(t, []string{"Acme"}, values["name"])
	require.Equal(t, []string{"sales@acme.io"}, values["email"])
	require.Equal(t, "Acme", f.Scalar("name"))
}

func TestValidationHookBlocksNext(t *testing.T) {
	f := form.New("Add Lead", leadFields(), nil)
	f.SetValidate(form.RequireFields)

	done, err := f.Next()
	require.False(t, done)
	require.EqualError(t, err, "Name is required")

	typeText(f, "Acme")
	done, err = f.Next()
	require.NoError(t, err)
	require.True(t, done)
}

func TestNoValidationWithoutHook(t *testing.T) {
	// Validation is the caller's responsibility; a form with no hook
	// completes even with required fields empty.
	f := form.New("Add Lead", leadFields(), nil)

	done, err := f.Next()
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, f.Values()["name"])
}

func TestSingleSelectCycles(t *testing.T) {
	f := form.New("Add Lead", leadFields(), nil)
	for i := 0; i < 2; i++ {
		_, err := f.NextField()
		require.NoError(t, err)
	}
	require.Equal(t, "Status", f.ActiveField().Label)

	f.CycleOption(1)
	require.Equal(t, []string{"contacted"}, f.ActiveField().Value)
	f.CycleOption(1)
	require.Equal(t, []string{"qualified"}, f.ActiveField().Value)
	f.CycleOption(1)
	require.Equal(t, []string{"new"}, f.ActiveField().Value, "cursor wraps")

	f.ToggleOption()
	require.Equal(t, []string{"new"}, f.ActiveField().Value, "single select keeps one value")
}

func TestMultiSelectTogglesMembership(t *testing.T) {
	f := form.New("Add Lead", leadFields(), nil)
	for i := 0; i < 3; i++ {
		_, err := f.NextField()
		require.NoError(t, err)
	}
	require.Equal(t, "Tags", f.ActiveField().Label)
	require.True(t, f.ActiveField().Multiple)

	f.ToggleOption()
	f.CycleOption(1)
	f.ToggleOption()
	require.Equal(t, []string{"vip", "inbound"}, f.ActiveField().Value)

	// Toggling an already-chosen option removes it.
	f.CycleOption(-1)
	f.ToggleOption()
	require.Equal(t, []string{"inbound"}, f.ActiveField().Value)

	values := f.Values()
	require.Equal(t, []string{"inbound"}, values["tags"])
}

func TestEditPrefillsValues(t *testing.T) {
	fields := leadFields()
	fields[0].Value = []string{"Globex"}
	fields[2].Value = []string{"qualified"}
	f := form.New("Edit Lead", fields, nil)

	require.Equal(t, "Globex", f.Input().Value())
	require.Equal(t, []string{"qualified"}, f.Values()["status"])
}
