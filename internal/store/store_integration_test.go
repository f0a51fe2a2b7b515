// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/medusa/medusa/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(migrator.Close)
	})

	It("starts at version zero with everything pending", func() {
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(BeZero())
		Expect(status.Dirty).To(BeFalse())
		Expect(status.Pending).To(Equal([]uint{1, 2}))
	})

	It("applies, steps and rolls back", func() {
		Expect(migrator.Up()).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))

		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})

	It("forces a version without running migrations", func() {
		Expect(migrator.Force(1)).To(Succeed())
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Applied).To(Equal([]uint{1}))

		Expect(migrator.Force(0)).To(Succeed())
	})

	It("is idempotent on Up", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed())
	})
})

var _ = Describe("Open", Ordered, func() {
	var pool *pgxpool.Pool

	BeforeAll(func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Open(context.Background(), connStr, 3)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)
	})

	It("answers the health probe", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		Expect(store.PingCheck(pool)(ctx)).To(Succeed())
	})

	It("cascades user deletion to tokens and profiles", func() {
		ctx := context.Background()
		userID := ulid.Make().String()

		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, tenant_id, email_address, password_hash)
			VALUES ($1, $2, 'cascade@example.com', 'credential')
		`, userID, ulid.Make().String())
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, `
			INSERT INTO user_tokens (id, user_id, digest, expires_at)
			VALUES ($1, $2, $3, NOW() + INTERVAL '8 hours')
		`, ulid.Make().String(), userID, "digest-"+userID)
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, `
			INSERT INTO user_profiles (id, user_id, first_name, last_name)
			VALUES ($1, $2, 'Ada', 'Lovelace')
		`, ulid.Make().String(), userID)
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		Expect(err).NotTo(HaveOccurred())

		var tokens, profiles int
		Expect(pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_tokens WHERE user_id = $1`, userID).Scan(&tokens)).To(Succeed())
		Expect(pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_profiles WHERE user_id = $1`, userID).Scan(&profiles)).To(Succeed())
		Expect(tokens).To(BeZero())
		Expect(profiles).To(BeZero())
	})
})
