package jobstore_test

import (
	"errors"
	"testing"

	"morph/internal/jobs"
	"morph/internal/jobstore"
)

func TestInsertRejectsDuplicates(t *testing.T) {
	store := jobstore.New()
	if err := store.Insert(jobs.Job{JobID: "a", Status: jobs.StatusPending}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := store.Insert(jobs.Job{JobID: "a", Status: jobs.StatusPending})
	if !errors.Is(err, jobstore.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store len = %d, want 1", store.Len())
	}
}

func TestInsertRejectsEmptyID(t *testing.T) {
	store := jobstore.New()
	if err := store.Insert(jobs.Job{Status: jobs.StatusPending}); err == nil {
		t.Fatal("expected error for empty job id")
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	store := jobstore.New()
	if err := store.Insert(jobs.Job{JobID: "a", Status: jobs.StatusPending, InputFilename: "report.pdf"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := store.Update("a", jobs.Job{Status: jobs.StatusCompleted, DownloadURL: "/files/report.docx"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != jobs.StatusCompleted || updated.DownloadURL != "/files/report.docx" {
		t.Fatalf("unexpected record after update: %+v", updated)
	}
	if updated.InputFilename != "report.pdf" {
		t.Fatal("no-op field was touched")
	}
}

func TestUpdateUnknownID(t *testing.T) {
	store := jobstore.New()
	if _, err := store.Update("missing", jobs.Job{Status: jobs.StatusProcessing}); !errors.Is(err, jobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRefusesTerminalRecords(t *testing.T) {
	store := jobstore.New()
	if err := store.Insert(jobs.Job{JobID: "a", Status: jobs.StatusFailed, Message: "unsupported codec"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := store.Update("a", jobs.Job{Status: jobs.StatusProcessing})
	if !errors.Is(err, jobstore.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	record, _ := store.Get("a")
	if record.Status != jobs.StatusFailed || record.Message != "unsupported codec" {
		t.Fatalf("terminal record mutated: %+v", record)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := jobstore.New()
	if err := store.Insert(jobs.Job{JobID: "a", Status: jobs.StatusPending}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	store.Remove("a")
	store.Remove("a")
	store.Remove("never-existed")
	if store.Len() != 0 {
		t.Fatalf("store len = %d, want 0", store.Len())
	}
	if _, ok := store.Get("a"); ok {
		t.Fatal("record resurrected after remove")
	}
}

func TestListKeepsInsertionOrder(t *testing.T) {
	store := jobstore.New()
	for _, id := range []string{"c", "a", "b"} {
		if err := store.Insert(jobs.Job{JobID: id, Status: jobs.StatusPending}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	store.Remove("a")
	if err := store.Insert(jobs.Job{JobID: "d", Status: jobs.StatusPending}); err != nil {
		t.Fatalf("insert d: %v", err)
	}

	var got []string
	for _, job := range store.List() {
		got = append(got, job.JobID)
	}
	want := []string{"c", "b", "d"}
	if len(got) != len(want) {
		t.Fatalf("list = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list = %v, want %v", got, want)
		}
	}
}

func TestReplaceSwapsContents(t *testing.T) {
	store := jobstore.New()
	if err := store.Insert(jobs.Job{JobID: "old", Status: jobs.StatusProcessing}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	store.Replace([]jobs.Job{
		{JobID: "x", Status: jobs.StatusCompleted, DownloadURL: "/files/x.docx"},
		{JobID: "y", Status: jobs.StatusPending},
		{JobID: "x", Status: jobs.StatusFailed}, // duplicate keeps first occurrence
		{Status: jobs.StatusPending},            // missing id skipped
	})

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("list len = %d, want 2", len(list))
	}
	if list[0].JobID != "x" || list[1].JobID != "y" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[0].Status != jobs.StatusCompleted {
		t.Fatal("duplicate id did not keep first occurrence")
	}
	if _, ok := store.Get("old"); ok {
		t.Fatal("replace left prior contents behind")
	}
}

func TestListReturnsCopies(t *testing.T) {
	store := jobstore.New()
	if err := store.Insert(jobs.Job{JobID: "a", Status: jobs.StatusPending}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	list := store.List()
	list[0].Status = jobs.StatusFailed
	record, _ := store.Get("a")
	if record.Status != jobs.StatusPending {
		t.Fatal("caller mutated stored record through List")
	}
}
