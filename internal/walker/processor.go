// Package walker traverses the source tree and feeds surviving files to the
// per-file pipeline
package walker

import (
	"fmt"
	"os"
	"sync"
)

// processFile reads a queued file, runs the content gate, and dispatches the
// result to the walkFn
func processFile(task fileTask, options WalkOptions, walkFn WalkFunc, tracker *SkippedTracker) {
	options.Logger.Debug("processFile: Reading [%s]", task.relativePath)

	// Update progress info with current file if progress reporting is enabled
	if options.ProgressFn != nil {
		options.ProgressFn(ProgressStats{
			CurrentFilePath: task.relativePath,
		})
	}

	// Only perform file stats if we have a size limit configured
	if options.MaxFileSize > 0 {
		info, err := os.Lstat(task.path)
		if err != nil {
			options.Logger.Error("processFile Error [%s]: Failed to get file info: %v", task.relativePath, err)
			tracker.Track(task.relativePath, ReasonSkippedInfoError, false)
			walkFn(File{Path: task.relativePath, Category: task.category}, fmt.Errorf("failed to get file info: %w", err))
			return
		}

		if !info.Mode().IsRegular() {
			options.Logger.Debug("processFile Skipping [%s]: Not a regular file.", task.relativePath)
			tracker.Track(task.relativePath, ReasonSkippedNotRegular, false)
			return
		}

		if info.Size() > options.MaxFileSize {
			options.Logger.Debug("processFile Skipping [%s]: Exceeds size limit (%d > %d bytes)",
				task.relativePath, info.Size(), options.MaxFileSize)
			tracker.Track(task.relativePath, ReasonSkippedSizeLimit, false)
			walkFn(File{Path: task.relativePath, Category: task.category}, fmt.Errorf("file size %d exceeds limit %d bytes", info.Size(), options.MaxFileSize))
			return
		}
	}

	// Read file content
	content, err := os.ReadFile(task.path)
	if err != nil {
		options.Logger.Error("processFile Error [%s]: Failed to read file: %v", task.relativePath, err)
		tracker.Track(task.relativePath, ReasonSkippedReadError, false)
		walkFn(File{Path: task.relativePath, Category: task.category}, fmt.Errorf("failed to read file: %w", err))
		return
	}

	// Content gate: the one check that needs the bytes in hand
	if options.Gate != nil && !options.Gate.AllowsContent(string(content)) {
		options.Logger.Debug("processFile Skipping [%s]: Pre-filtered (content)", task.relativePath)
		tracker.Track(task.relativePath, ReasonPreFilteredContent, false)
		return
	}

	// Call the walk function with the content
	options.Logger.Debug("processFile Success [%s]: Read %d bytes. Calling walkFn.", task.relativePath, len(content))
	file := File{Path: task.relativePath, Category: task.category, Content: content}
	if err := walkFn(file, nil); err != nil {
		options.Logger.Error("processFile Error [%s]: Callback function returned error: %v", task.relativePath, err)
	}
}

// fileProcessorWorker is the goroutine function for concurrent processing.
func fileProcessorWorker(
	id int,
	filesChan <-chan fileTask,
	wg *sync.WaitGroup,
	options WalkOptions,
	walkFn WalkFunc,
	tracker *SkippedTracker,
) {
	defer wg.Done()
	options.Logger.Debug("Worker %d: Started", id)

	for task := range filesChan {
		select {
		case <-options.Context.Done():
			options.Logger.Debug("Worker %d: Received cancellation signal", id)
			return
		default:
			options.Logger.Debug("Worker %d: Processing file [%s]", id, task.relativePath)
			processFile(task, options, walkFn, tracker)
		}
	}

	options.Logger.Debug("Worker %d: Finished", id)
}
