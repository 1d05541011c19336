// Package storage persists downloaded portraits.
//
// The Manager is rooted at the configured output directory and writes each
// file through a temporary file in the destination directory followed by a
// rename, so a crash never leaves a truncated image under the final name.
// Presence on disk is the only record of what has been downloaded.
//
// Usage:
//
//	manager := storage.NewManager("portraits")
//
//	if !manager.Exists("311_s", "曹操.jpg") {
//	    path, err := manager.Save(reader, "311_s", "曹操.jpg")
//	    if err != nil {
//	        log.Printf("Failed to save file: %v", err)
//	    }
//	}
//
// File names are sanitized only for path separators.
package storage
