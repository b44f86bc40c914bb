package cert_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mscrnt/mcadecode/pkg/cert"
	"github.com/mscrnt/mcadecode/pkg/db"
)

func issueForVerify(t *testing.T) (certPath, caCertPath string) {
	t.Helper()

	issuer, err := cert.NewCertificateIssuer()
	if err != nil {
		t.Fatalf("NewCertificateIssuer: %v", err)
	}

	dir := t.TempDir()
	caCertPath = filepath.Join(dir, "ca.crt")
	if err := issuer.SaveCA(caCertPath, filepath.Join(dir, "ca.key")); err != nil {
		t.Fatalf("SaveCA: %v", err)
	}

	run := &db.Run{ID: 99, Source: "/var/log/vmkernel.log", StartTime: time.Now()}
	events := []*db.Event{
		{Bank: 3, UCRClass: "UC", MCACode: "Generic Cache Hierarchy"},
		{Bank: 5, UCRClass: "CE", MCACode: "Bus and Interconnect"},
	}

	issued, err := issuer.IssueCertificate(run, events)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}

	certPath = filepath.Join(dir, "run.crt")
	if err := issued.Save(certPath, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	return certPath, caCertPath
}

func TestVerifyCertificateFileValid(t *testing.T) {
	t.Parallel()

	certPath, caCertPath := issueForVerify(t)

	result, err := cert.VerifyCertificateFile(certPath, caCertPath)
	if err != nil {
		t.Fatalf("VerifyCertificateFile: %v", err)
	}

	if !result.Valid {
		t.Errorf("Valid = false, want true (error: %s)", result.Error)
	}
	if result.RunID != "99" {
		t.Errorf("RunID = %q, want %q", result.RunID, "99")
	}
	if result.Source != "/var/log/vmkernel.log" {
		t.Errorf("Source = %q, want %q", result.Source, "/var/log/vmkernel.log")
	}
	if result.Status != "OK" {
		t.Errorf("Status = %q, want %q", result.Status, "OK")
	}
	if len(result.Events) != 2 {
		t.Errorf("len(Events) = %d, want 2", len(result.Events))
	}
}

func TestVerifyCertificateFileWrongCA(t *testing.T) {
	t.Parallel()

	certPath, _ := issueForVerify(t)

	otherIssuer, err := cert.NewCertificateIssuer()
	if err != nil {
		t.Fatalf("NewCertificateIssuer: %v", err)
	}
	dir := t.TempDir()
	otherCAPath := filepath.Join(dir, "other-ca.crt")
	if err := otherIssuer.SaveCA(otherCAPath, filepath.Join(dir, "other-ca.key")); err != nil {
		t.Fatalf("SaveCA: %v", err)
	}

	result, err := cert.VerifyCertificateFile(certPath, otherCAPath)
	if err != nil {
		t.Fatalf("VerifyCertificateFile: %v", err)
	}

	if result.Valid {
		t.Error("Valid = true, want false when verified against an unrelated CA")
	}
}

func TestFormatVerifyResultIncludesEvents(t *testing.T) {
	t.Parallel()

	certPath, caCertPath := issueForVerify(t)

	result, err := cert.VerifyCertificateFile(certPath, caCertPath)
	if err != nil {
		t.Fatalf("VerifyCertificateFile: %v", err)
	}

	out := cert.FormatVerifyResult(result)
	if !strings.Contains(out, "VALID") {
		t.Error("expected formatted output to report VALID")
	}
	if !strings.Contains(out, "Generic Cache Hierarchy") {
		t.Error("expected formatted output to include an event summary")
	}
}
