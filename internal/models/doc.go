// Package models lists the OpenAI models available to the configured API
// key, grouped into speech models for sentence audio and chat models for
// sentence translation.
package models
