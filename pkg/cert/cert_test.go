package cert_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mscrnt/mcadecode/pkg/cert"
	"github.com/mscrnt/mcadecode/pkg/db"
)

func TestNewCertificateIssuerCreatesSelfSignedCA(t *testing.T) {
	t.Parallel()

	issuer, err := cert.NewCertificateIssuer()
	if err != nil {
		t.Fatalf("NewCertificateIssuer: %v", err)
	}
	if issuer == nil {
		t.Fatal("NewCertificateIssuer returned nil issuer")
	}
}

func TestSaveCAThenLoadCARoundTrips(t *testing.T) {
	t.Parallel()

	issuer, err := cert.NewCertificateIssuer()
	if err != nil {
		t.Fatalf("NewCertificateIssuer: %v", err)
	}

	dir := t.TempDir()
	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")

	if err := issuer.SaveCA(certPath, keyPath); err != nil {
		t.Fatalf("SaveCA: %v", err)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("Stat key file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("CA key permissions = %o, want 0600", info.Mode().Perm())
	}

	if _, err := cert.LoadCA(certPath, keyPath); err != nil {
		t.Fatalf("LoadCA: %v", err)
	}
}

func TestIssueCertificateEmbedsRunAndEventData(t *testing.T) {
	t.Parallel()

	issuer, err := cert.NewCertificateIssuer()
	if err != nil {
		t.Fatalf("NewCertificateIssuer: %v", err)
	}

	start := time.Now().Add(-time.Minute)
	end := time.Now()
	run := &db.Run{
		ID:        42,
		Source:    "/var/log/vmkernel.log",
		StartTime: start,
		EndTime:   &end,
	}
	events := []*db.Event{
		{Bank: 3, UCRClass: "UC", MCACode: "Generic Cache Hierarchy"},
	}

	issued, err := issuer.IssueCertificate(run, events)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}

	if issued.RunID != run.ID {
		t.Errorf("RunID = %d, want %d", issued.RunID, run.ID)
	}
	if issued.Subject.CommonName != "Decode Run #42" {
		t.Errorf("CommonName = %q, want %q", issued.Subject.CommonName, "Decode Run #42")
	}

	if err := issuer.Verify(issued.Certificate); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestIssueCertificateMarksErrorStatus(t *testing.T) {
	t.Parallel()

	issuer, err := cert.NewCertificateIssuer()
	if err != nil {
		t.Fatalf("NewCertificateIssuer: %v", err)
	}

	run := &db.Run{ID: 7, Source: "watch:/var/log", StartTime: time.Now(), Error: "scan: open: permission denied"}

	issued, err := issuer.IssueCertificate(run, nil)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}

	found := false
	for _, ext := range issued.Extensions {
		if ext.Id.String() == "1.3.6.1.4.1.99999.1.1" && string(ext.Value) == "ERROR" {
			found = true
		}
	}
	if !found {
		t.Error("expected ERROR status extension for a run with a recorded error")
	}
}

func TestSaveWritesCertificateAndKeyFiles(t *testing.T) {
	t.Parallel()

	issuer, err := cert.NewCertificateIssuer()
	if err != nil {
		t.Fatalf("NewCertificateIssuer: %v", err)
	}

	run := &db.Run{ID: 1, Source: "manual", StartTime: time.Now()}
	issued, err := issuer.IssueCertificate(run, nil)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}

	dir := t.TempDir()
	certPath := filepath.Join(dir, "run.crt")
	keyPath := filepath.Join(dir, "run.key")

	if err := issued.Save(certPath, keyPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(certPath); err != nil {
		t.Fatalf("expected cert file: %v", err)
	}
	if _, err := os.Stat(keyPath); err != nil {
		t.Fatalf("expected key file: %v", err)
	}

	if issued.SavePEM() == "" {
		t.Error("SavePEM returned empty string")
	}
}
