// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

// Package mocks provides testify mocks for the identity interfaces.
//
// Each constructor registers a cleanup that asserts all expectations were met.
package mocks
