// Package processor wires the clozerecall components together for each
// command. It opens the database, builds the audio providers, translator,
// backend service, audio coordinator and session controller from the
// viper configuration, and runs the drill, the import and the reports.
package processor
