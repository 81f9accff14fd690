package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("inline wins over file", func(t *testing.T) {
		got, err := loadCredentials(` {"inline":true} `, file)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `{"inline":true}` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("file", func(t *testing.T) {
		got, err := loadCredentials("", file)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(got), "service_account") {
			t.Errorf("got %s", got)
		}
	})

	t.Run("application default path", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", file)
		if _, err := loadCredentials("", ""); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadCredentials("", filepath.Join(dir, "nope.json"))
		if err == nil || !strings.Contains(err.Error(), "read service account file") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestClient_NotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", summarySheet: "Summary", planSheet: "Plan"}

	if err := c.ExportSummaries(context.Background(), nil); err == nil {
		t.Error("expected error with nil service")
	}
	if _, err := c.ReadPlanEntries(context.Background()); err == nil {
		t.Error("expected error with nil service")
	}
}
