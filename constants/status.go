package constants

// RunStatus is the canonical status for rows in quote_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning       RunStatus = "RUNNING"        // processing started
	RunStatusExtractFailed RunStatus = "EXTRACT_FAILED" // page text extraction failed
	RunStatusParseFailed   RunStatus = "PARSE_FAILED"   // field parsing call failed
	RunStatusParsed        RunStatus = "PARSED"         // fields extracted, sheet append failed or disabled
	RunStatusRecorded      RunStatus = "RECORDED"       // fields extracted and appended to the sheet
)
