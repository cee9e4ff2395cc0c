// Package viz renders solver output for the terminal.
//
//   - [ComparisonTable], [VerifyTable], [TimingTable], [RunsTable]: lipgloss
//     tables of experiment results
//   - [PlotVector], [PlotDeltas]: asciigraph charts of a solution and of
//     relaxation convergence
//   - [Live]: Bubble Tea model that steps a relaxation one sweep per tick
//
// # Key Bindings
//
//	Space - Pause/Resume sweeps
//	N     - Single sweep while paused
//	M     - Switch between Jacobi and Gauss-Seidel
//	R     - Reset to the starting vector
//	Q     - Quit
package viz
