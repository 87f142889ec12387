package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Backup streams a consistent full snapshot of the store to w.
func (b *BadgerStore) Backup(w io.Writer) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}

	// since=0 means full backup
	if _, err := b.db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	return nil
}

// BackupToFile writes a backup to path. The file is a self-contained,
// portable copy of the store.
func (b *BadgerStore) BackupToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	buf := bufio.NewWriterSize(f, 1<<20)
	if err := b.Backup(buf); err != nil {
		return err
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush backup: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync backup: %w", err)
	}
	return nil
}

// Restore loads a backup produced by Backup. Existing keys are overwritten.
func (b *BadgerStore) Restore(r io.Reader) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	if err := b.db.Load(r, 256); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	return nil
}

// RestoreFromFile loads a backup file written by BackupToFile.
func (b *BadgerStore) RestoreFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()
	return b.Restore(bufio.NewReader(f))
}
