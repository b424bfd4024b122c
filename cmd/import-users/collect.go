package main

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/account"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// collectUsers reads every file and returns the valid users in file order,
// keeping only the first valid record for each username and each email.
// Invalid records are dropped before they can claim a key.
//
// Two parallel bloom passes find the keys that may repeat, within a file or
// across files. Only those candidate keys are tracked exactly while the
// records are collected.
func collectUsers(ctx context.Context, files []string) ([]account.User, error) {
	filters, candidates, err := buildFilters(ctx, files)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}
	if err := findCrossFileCandidates(ctx, files, filters, candidates); err != nil {
		return nil, errors.Wrap(err, "find candidates")
	}

	merged := make(map[string]struct{})
	for _, c := range candidates {
		for k := range c {
			merged[k] = struct{}{}
		}
	}
	slog.Info("candidate duplicate keys", slog.Int("count", len(merged)))

	var (
		users   []account.User
		claimed = make(map[string]struct{})
		skipped int
		invalid int
	)
	for _, path := range files {
		if err := streamUsers(ctx, path, func(u account.User) {
			if _, err := account.ValidateUser(u); err != nil {
				invalid++
				return
			}
			keys := userKeys(u)
			for _, k := range keys {
				if _, ok := merged[k]; !ok {
					continue
				}
				if _, ok := claimed[k]; ok {
					skipped++
					return
				}
			}
			for _, k := range keys {
				if _, ok := merged[k]; ok {
					claimed[k] = struct{}{}
				}
			}
			users = append(users, u)
		}); err != nil {
			return nil, errors.Wrapf(err, "collect %s", path)
		}
	}
	slog.Info("invalid records skipped", slog.Int("count", invalid))
	slog.Info("duplicate records skipped", slog.Int("count", skipped))
	return users, nil
}

// buildFilters creates one bloom filter per file concurrently. Keys already
// present in their own file's filter are reported as candidates.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, []map[string]struct{}, error) {
	filters := make([]*bloom.BloomFilter, len(files))
	candidates := make([]map[string]struct{}, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			local := make(map[string]struct{})
			var count int

			if err := streamUsers(ctx, path, func(u account.User) {
				for _, k := range userKeys(u) {
					if filter.TestOrAddString(k) {
						local[k] = struct{}{}
					}
				}
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.String("file", path), slog.Int("records", count))
				}
			}); err != nil {
				return errors.Wrapf(err, "filter %s", path)
			}

			slog.Info("pass 1 complete", slog.String("file", path), slog.Int("records", count))
			filters[i] = filter
			candidates[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return filters, candidates, nil
}

// findCrossFileCandidates adds keys that may also appear in another file.
func findCrossFileCandidates(ctx context.Context, files []string, filters []*bloom.BloomFilter, candidates []map[string]struct{}) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			local := candidates[i]
			return streamUsers(ctx, path, func(u account.User) {
				for _, k := range userKeys(u) {
					for j, f := range filters {
						if j != i && f.TestString(k) {
							local[k] = struct{}{}
							break
						}
					}
				}
			})
		})
	}
	return g.Wait()
}

// userKeys returns the uniqueness keys of u. Blank values are left to
// account validation.
func userKeys(u account.User) []string {
	keys := make([]string, 0, 2)
	if u.Username != "" {
		keys = append(keys, "u\x00"+u.Username)
	}
	if u.Email != "" {
		keys = append(keys, "e\x00"+u.Email)
	}
	return keys
}

// streamUsers calls fn for every well-formed record of a gzip-compressed JSON
// lines file. Malformed lines are logged and skipped.
func streamUsers(ctx context.Context, path string, fn func(u account.User)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	var line int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		u, err := parseUser(data)
		if err != nil {
			slog.Warn("skipping malformed record",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			continue
		}
		fn(u)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// parseUser decodes {"username","email","password"}, trimming the
// identifiers the same way registration does.
func parseUser(data []byte) (account.User, error) {
	var u account.User
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "username":
			u.Username, err = d.Str()
		case "email":
			u.Email, err = d.Str()
		case "password":
			u.Password, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return account.User{}, err
	}
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	return u, nil
}
