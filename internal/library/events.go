package library

import (
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/transfer"
)

// Event is the interface implemented by all workflow events.
type Event interface {
	isEvent()
}

// EventEmitter receives workflow events.
type EventEmitter interface {
	Emit(event Event)
}

// Part names which tree of a title an event concerns.
type Part string

// Parts.
const (
	PartGame   Part = "game"
	PartPrefix Part = "prefix"
	PartBackup Part = "backup"
)

// TransferStarted is emitted before rsync starts.
type TransferStarted struct {
	ID        string
	Part      Part
	Direction transfer.Direction
	Local     string
	Remote    string
}

func (TransferStarted) isEvent() {}

// TransferProgress carries one line of rsync output.
type TransferProgress struct {
	ID       string
	Part     Part
	Progress transfer.Progress
}

func (TransferProgress) isEvent() {}

// TransferFinished is emitted when rsync exits. Err is nil on success.
type TransferFinished struct {
	ID   string
	Part Part
	Err  error
}

func (TransferFinished) isEvent() {}

// VerifyStarted is emitted before fingerprinting both copies.
type VerifyStarted struct {
	ID   string
	Part Part
}

func (VerifyStarted) isEvent() {}

// VerifyFinished carries both fingerprints.
type VerifyFinished struct {
	ID     string
	Part   Part
	Local  fingerprint.Fingerprint
	Remote fingerprint.Fingerprint
	Match  bool
}

func (VerifyFinished) isEvent() {}

// ShortcutSynced is emitted after a shortcut entry was rendered.
type ShortcutSynced struct {
	ID    string
	Title string
}

func (ShortcutSynced) isEvent() {}
