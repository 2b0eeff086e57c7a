package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/app"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/buildinfo"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/registry"
)

func writeJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func syncCountsLine(report *domain.SyncReport) string {
	return fmt.Sprintf("downloaded=%d updated=%d skipped=%d failed=%d conflicts=%d",
		report.Downloaded, report.Updated, report.Skipped, report.Failed, len(report.Conflicts))
}

func printSyncDetails(report *domain.SyncReport) {
	for _, file := range report.Conflicts {
		fmt.Printf("conflict\t%s\n", file)
	}
	for _, file := range report.RemovedFiles {
		fmt.Printf("removed upstream\t%s\n", file)
	}
	for _, syncErr := range report.Errors {
		fmt.Printf("failed\t%s\t%s\n", syncErr.File, syncErr.Message)
	}
}

func printImportResult(result *app.ImportResult, jsonOutput bool) error {
	if result == nil {
		return nil
	}
	if jsonOutput {
		return writeJSON(result)
	}
	fmt.Printf("imported %s type=%s schemas=%d\n", result.Source.Name, result.Source.Type, result.Source.SchemaCount)
	fmt.Println(syncCountsLine(result.Report))
	printSyncDetails(result.Report)
	return nil
}

func printUpdateReport(report *domain.UpdateReport, jsonOutput bool) error {
	if report == nil {
		return nil
	}
	if jsonOutput {
		return writeJSON(report)
	}
	fmt.Printf("sources=%d downloaded=%d updated=%d failed=%d\n",
		len(report.Reports), report.TotalDownloaded(), report.TotalUpdated(), report.TotalFailed())
	for i := range report.Reports {
		sub := &report.Reports[i]
		fmt.Printf("%s\t%s\n", sub.Source, syncCountsLine(sub))
		printSyncDetails(sub)
	}
	return nil
}

func printSources(sources []domain.Source, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{"sources": sources})
	}
	fmt.Printf("sources=%d\n", len(sources))
	for _, source := range sources {
		fmt.Printf("%s\t%s\tschemas=%d\tupdated=%s\n",
			source.Name, source.Type, source.SchemaCount, source.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func printTools(tools []domain.CatalogEntry, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{"tools": tools})
	}
	fmt.Printf("tools=%d\n", len(tools))
	for _, tool := range tools {
		if tool.Description != "" {
			fmt.Printf("%s\t%s\t%s\n", tool.ToolName, tool.ToolRef, tool.Description)
			continue
		}
		fmt.Printf("%s\t%s\n", tool.ToolName, tool.ToolRef)
	}
	return nil
}

func printSearchResult(result domain.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(result)
	}
	fmt.Printf("matches=%d\n", result.TotalMatches)
	for _, ranked := range result.Tools {
		if ranked.Entry.Description != "" {
			fmt.Printf("%d\t%s\t%s\n", ranked.Score, ranked.Entry.ToolName, ranked.Entry.Description)
			continue
		}
		fmt.Printf("%d\t%s\n", ranked.Score, ranked.Entry.ToolName)
	}
	if result.Hint != "" {
		fmt.Printf("hint=%s\n", result.Hint)
	}
	return nil
}

func printCallResult(result *app.CallResult, jsonOutput bool) error {
	if result == nil {
		return nil
	}
	if jsonOutput {
		return writeJSON(result)
	}
	if result.Result.OK {
		if result.FromCache {
			fmt.Printf("cached=true expires=%s\n", result.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Println(string(result.Result.Data))
		return nil
	}
	if result.Result.Status != 0 {
		fmt.Printf("status=%d\n", result.Result.Status)
	}
	for _, message := range result.Result.Messages {
		fmt.Println(message)
	}
	return nil
}

func printCacheStatus(status *domain.CacheStatus, jsonOutput bool) error {
	if status == nil {
		return nil
	}
	if jsonOutput {
		return writeJSON(status)
	}
	fmt.Printf("entries=%d size=%dB\n", len(status.Entries), status.TotalSize)
	for _, entry := range status.Entries {
		state := "expires=" + entry.ExpiresAt.Format(time.RFC3339)
		if entry.Expired {
			state = "expired"
		}
		fmt.Printf("%s\t%dB\t%s\n", entry.Key, entry.Size, state)
	}
	return nil
}

func printPresets(presets []registry.Preset, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{"presets": presets})
	}
	fmt.Printf("presets=%d\n", len(presets))
	for _, preset := range presets {
		if preset.Description != "" {
			fmt.Printf("%s\t%s\t%s\n", preset.Name, preset.URL, preset.Description)
			continue
		}
		fmt.Printf("%s\t%s\n", preset.Name, preset.URL)
	}
	return nil
}

func printVersion(jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]string{
			"version": buildinfo.Version,
			"commit":  buildinfo.Commit,
		})
	}
	if buildinfo.Commit != "" {
		fmt.Printf("flowmcp %s (%s)\n", buildinfo.Version, buildinfo.Commit)
		return nil
	}
	fmt.Printf("flowmcp %s\n", buildinfo.Version)
	return nil
}
