package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	ical "github.com/emersion/go-ical"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monitoria/schedconv/internal/schedule"
)

const sampleCSV = "Horários de monitoria,,,\n" +
	",,Segunda,Terça\n" +
	",9h0,Ana (Sala 203),Bia**\n" +
	",14h30,\"Ana/Caio\",\n" +
	"\n" +
	",16h0,Ignorada,\n"

// execute runs the root command with a private HOME and config file and
// restores the flags it touched afterwards.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SCHEDCONV_CLIPBOARD", "false")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.toml")}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags()
	})

	err = rootCmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func resetFlags() {
	_ = rootCmd.PersistentFlags().Set("subject", "")
	_ = rootCmd.PersistentFlags().Set("verbose", "false")
	for _, cmd := range []*cobra.Command{rootCmd, convertCmd} {
		_ = cmd.Flags().Set("out", "")
		_ = cmd.Flags().Set("no-clipboard", "false")
	}
	_ = icsCmd.Flags().Set("out", "")
	_ = icsCmd.Flags().Set("monitor", "")
	_ = icsCmd.Flags().Set("week", "")
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "horarios.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))
	return path
}

func TestConvert(t *testing.T) {
	csvPath := writeCSV(t)
	outPath := filepath.Join(t.TempDir(), "monitores.json")

	stdout, _, err := execute(t, "convert", "--out", outPath, csvPath)
	require.NoError(t, err)

	feed, err := schedule.DecodeFeed(bytes.NewBufferString(stdout))
	require.NoError(t, err)
	assert.Equal(t, "fisica", feed.Subject)
	assert.Equal(t, 45, feed.Document.Duration)
	assert.Equal(t, []string{"9:00", "14:30"}, feed.Document.Slots)

	require.Len(t, feed.Document.Monitors, 3)
	ana := feed.Document.Monitor("Ana")
	require.NotNil(t, ana)
	assert.Equal(t, []string{"9:00 - Sala 203", "14:30"}, ana.Schedule.Entries("segunda"))
	assert.Equal(t, []string{"9:00 - **"}, feed.Document.Monitor("Bia").Schedule.Entries("terça"))

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, stdout, string(written))
}

func TestConvert_CanceledAfterStdout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outPath := filepath.Join(t.TempDir(), "monitores.json")

	stdout, stderr, err := executeContext(t, ctx, "convert", "--out", outPath, writeCSV(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, `"fisica": {`)
	assert.Contains(t, stderr, "output sink skipped")
	assert.NoFileExists(t, outPath)
}

func TestRootDefaultsToConvert(t *testing.T) {
	stdout, _, err := execute(t, "--subject", "quimica", writeCSV(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, `"quimica": {`)
	assert.Contains(t, stdout, `"sábado": []`)
}

func TestConvert_MalformedTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("t\n,,Segunda\n,manhã,Ana\n"), 0644))

	_, _, err := execute(t, "convert", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrMalformedTimeLabel)
}

func TestConvert_MissingFile(t *testing.T) {
	_, _, err := execute(t, "convert", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestICS(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "monitoria.ics")

	_, stderr, err := execute(t, "ics", "--monitor", "Ana", "--week", "next week", "--out", outPath, writeCSV(t))
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote 2 events")

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	cal, err := ical.NewDecoder(f).Decode()
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 2)
}

func TestSchema(t *testing.T) {
	stdout, _, err := execute(t, "schema", "--subject", "quimica")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, []any{"quimica"}, doc["required"])
}

func TestDisplayURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9090", displayURL(":9090"))
	assert.Equal(t, "http://127.0.0.1:8080", displayURL("127.0.0.1:8080"))
}
