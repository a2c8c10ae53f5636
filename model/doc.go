// Package model defines the provider‑agnostic abstractions for the language
// models that act as judges inside runeval pipelines.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so pipelines remain decoupled from vendor SDKs.
package model
