package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

func sampleReport(t *testing.T) *model.RunReport {
	t.Helper()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := model.NewRunReport("run-42", "pi5", false, start)
	require.NoError(t, r.BeginPlan("base-packages"))
	require.NoError(t, r.Record(model.StepReport{
		Resource: resource.Package("git"),
		Outcome:  model.OutcomeSkipped,
		Fatal:    true,
	}))
	require.NoError(t, r.Record(model.StepReport{
		Resource: resource.Package("meson"),
		Outcome:  model.OutcomeFailed,
		Fatal:    true,
		Err:      errors.New("install meson: exit status 100\nE: Unable to locate package meson"),
	}))
	require.NoError(t, r.Abort())
	require.NoError(t, r.SkipPlan("boot-config"))
	r.Finish(start.Add(1500 * time.Millisecond))
	return r
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWriteTableOneLinePerStep(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(t), FormatTable))

	out := buf.String()
	require.Contains(t, out, "run-42 (pi5)")
	require.Contains(t, out, "== base-packages (aborted)")
	require.Contains(t, out, "== boot-config (not run)")
	require.Regexp(t, `skip\s+package:git`, out)
	require.Regexp(t, `fail\s+package:meson`, out)
	require.Contains(t, out, "E: Unable to locate package meson")
	require.Contains(t, out, "status: aborted")
	require.Contains(t, out, "exit 1")
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(t), FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "run-42", decoded["run_id"])
	require.Equal(t, "aborted", decoded["status"])

	plans := decoded["plans"].([]any)
	require.Len(t, plans, 2)
	steps := plans[0].(map[string]any)["steps"].([]any)
	require.Equal(t, "package:meson", steps[1].(map[string]any)["resource"])
	require.Contains(t, steps[1].(map[string]any)["error"], "Unable to locate")
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(t), FormatYAML))

	var decoded struct {
		RunID string `yaml:"run_id"`
		Plans []struct {
			Name   string `yaml:"name"`
			NotRun bool   `yaml:"not_run"`
		} `yaml:"plans"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "run-42", decoded.RunID)
	require.True(t, decoded.Plans[1].NotRun)
}

func TestWriteRejectsNilReport(t *testing.T) {
	t.Parallel()
	require.Error(t, Write(io.Discard, nil, FormatJSON))
}

func TestWriteFilePicksFormatFromExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := sampleReport(t)

	jsonPath := filepath.Join(dir, "reports", "run.json")
	require.NoError(t, WriteFile(jsonPath, r))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.True(t, json.Valid(data))

	yamlPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, WriteFile(yamlPath, r))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "run_id: run-42")
}

func TestParseDestination(t *testing.T) {
	t.Parallel()

	dest, err := ParseDestination("s3://fleet-reports/relays/pi5/")
	require.NoError(t, err)
	require.Equal(t, "fleet-reports", dest.Bucket)
	require.Equal(t, "relays/pi5", dest.Prefix)
	require.Equal(t, "relays/pi5/run-1.json", dest.Key("run-1"))

	bare, err := ParseDestination("s3://bucket")
	require.NoError(t, err)
	require.Equal(t, "run-1.json", bare.Key("run-1"))
	require.Equal(t, "s3://bucket", bare.String())

	_, err = ParseDestination("https://bucket/prefix")
	require.Error(t, err)
	_, err = ParseDestination("s3:///prefix")
	require.Error(t, err)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUploaderUpload(t *testing.T) {
	t.Parallel()

	client := &fakeS3{}
	u := &Uploader{Client: client, Dest: Destination{Bucket: "fleet", Prefix: "relays"}}

	location, err := u.Upload(context.Background(), sampleReport(t))
	require.NoError(t, err)
	require.Equal(t, "s3://fleet/relays/run-42.json", location)
	require.Equal(t, "fleet", *client.input.Bucket)
	require.Equal(t, "relays/run-42.json", *client.input.Key)
	require.Equal(t, "application/json", *client.input.ContentType)
	require.True(t, json.Valid(client.body))
}

func TestUploaderUploadReportsAPIError(t *testing.T) {
	t.Parallel()

	client := &fakeS3{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}}
	u := &Uploader{Client: client, Dest: Destination{Bucket: "fleet"}}

	_, err := u.Upload(context.Background(), sampleReport(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "AccessDenied")

	var ae smithy.APIError
	require.ErrorAs(t, err, &ae)
}

func TestUploaderRequiresClient(t *testing.T) {
	t.Parallel()

	var u *Uploader
	_, err := u.Upload(context.Background(), sampleReport(t))
	require.Error(t, err)
}
