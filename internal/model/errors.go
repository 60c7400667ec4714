package model

import "errors"

// Sentinel errors shared across the orchestration packages.
var (
	// ErrToolNotInstalled is returned when the downloader binary cannot be found on PATH.
	ErrToolNotInstalled = errors.New("downloader tool not installed")
	// ErrManifestLocked indicates another run holds the manifest lock.
	ErrManifestLocked = errors.New("manifest is locked by another run")
	// ErrBatchAborted is returned when the caller aborts a batch after validation.
	ErrBatchAborted = errors.New("batch aborted")
	// ErrUnknownProfile is returned when a downloader profile name is not registered.
	ErrUnknownProfile = errors.New("unknown downloader profile")
)
