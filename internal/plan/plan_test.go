package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/internal/step"
)

type stubProbe struct{ id resource.ID }

func (p stubProbe) Resource() resource.ID { return p.id }

func (p stubProbe) Check(context.Context) model.ProbeResult { return model.Absent("") }

type stubAction struct{ id resource.ID }

func (a stubAction) Resource() resource.ID { return a.id }

func (a stubAction) Apply(context.Context) error { return nil }

func pair(id resource.ID) *step.Step {
	return step.New(id.String(), stubProbe{id: id}, stubAction{id: id})
}

func TestValidateDuplicateResource(t *testing.T) {
	t.Parallel()

	line := resource.FileLine("/etc/dhcp/dhclient.conf", "timeout 60;")
	p := New("dhcp", pair(line), pair(resource.FileLine("/etc/dhcp/dhclient.conf", "retry 15;")), pair(line))

	err := p.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, &ValidationError{Code: ErrCodeDuplicate})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "dhcp", ve.Plan)
	require.Equal(t, line, ve.Resource)
	require.Contains(t, err.Error(), "steps 1 and 3")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	pkg := resource.Package("git")

	tests := []struct {
		name string
		plan *Plan
		code ErrorCode
	}{
		{"valid", New("base-packages", pair(pkg), pair(resource.Package("curl"))), ""},
		{"missing name", New(" ", pair(pkg)), ErrCodeMissingName},
		{"empty", New("wifi"), ErrCodeEmpty},
		{"nil step", New("wifi", nil), ErrCodeInvalidStep},
		{
			"identity mismatch",
			New("base-packages", step.New("", stubProbe{id: pkg}, stubAction{id: resource.Package("curl")})),
			ErrCodeIdentityMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.plan.Validate()
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, &ValidationError{Code: tt.code})
			require.True(t, IsValidationError(err))
		})
	}
}

func TestValidateAll(t *testing.T) {
	t.Parallel()

	good := New("dhcp", pair(resource.Package("isc-dhcp-client")))
	require.NoError(t, ValidateAll([]*Plan{good}))

	err := ValidateAll([]*Plan{good, New("dhcp", pair(resource.Package("udhcpc"))), New("")})
	require.Error(t, err)
	require.ErrorIs(t, err, &ValidationError{Code: ErrCodeDuplicate})
	require.ErrorIs(t, err, &ValidationError{Code: ErrCodeMissingName})
}

func TestSelect(t *testing.T) {
	t.Parallel()

	plans := []*Plan{
		New("base-packages", pair(resource.Package("git"))),
		New("boot-config", pair(resource.FileLine("/boot/firmware/config.txt", "enable_uart=1"))),
		New("dhcp", pair(resource.FileLine("/etc/dhcp/dhclient.conf", "timeout 60;"))),
	}

	all, err := Select(plans, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	got, err := Select(plans, []string{"dhcp", "base-packages"})
	require.NoError(t, err)
	require.Equal(t, []string{"base-packages", "dhcp"}, Names(got))

	_, err = Select(plans, []string{"dhcp", "mavlink"})
	require.ErrorIs(t, err, &ValidationError{Code: ErrCodeUnknown})
	require.Contains(t, err.Error(), "mavlink")
}
