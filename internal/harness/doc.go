// Package harness replays consolidation scenarios against a real log store.
//
// # Scenario Format
//
// Scenarios are YAML files. Entries use the fixture format (see package
// fixture):
//
//	name: concurrent_merge
//	description: "Two concurrent baselines merge into the most recent one"
//	schema:
//	  current: v2
//	  known: [v1]
//	merged_ids: [M1]
//	entries:
//	  - id: B1
//	    baseline: true
//	    global_count: 3
//	    replica: S1
//	    clock: {S1: 2, S2: 1}
//	    schema_version: v1
//	expect:
//	  report: {fetched: 2, eliminated: 0, merged: 1, survivor: M1}
//	  baselines: [M1]
//	  states: [fetching, checking_compatibility, ...]
//	abandoned:
//	  - replica: S1
//	    abandoned: false
//
// expect.error names an error kind (for example UNKNOWN_SCHEMA_VERSION)
// when the run must fail.
//
// # Deterministic Testing
//
// Each scenario runs in a fresh in-memory SQLite database. Merge targets
// take their IDs from merged_ids and their timestamps from a
// testutil.DeterministicClock starting at testutil.Epoch, so the final log
// is byte-for-byte reproducible and can be compared against a golden file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/concurrent_merge.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
