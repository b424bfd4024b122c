package account

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
)

func registration(username, email, password string) Registration {
	return Registration{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		reg     Registration
		wantErr error
	}{
		{
			name:    "missing username",
			reg:     registration("  ", "a@example.com", "secret1"),
			wantErr: ErrMissingFields,
		},
		{
			name:    "missing email",
			reg:     registration("ava", "", "secret1"),
			wantErr: ErrMissingFields,
		},
		{
			name:    "missing confirmation",
			reg:     Registration{Username: "ava", Email: "a@example.com", Password: "secret1"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "short password",
			reg:     registration("ava", "a@example.com", "12345"),
			wantErr: ErrPasswordTooShort,
		},
		{
			name:    "short multibyte password",
			reg:     registration("ava", "a@example.com", "ééé"),
			wantErr: ErrPasswordTooShort,
		},
		{
			name: "mismatched confirmation",
			reg: Registration{
				Username: "ava", Email: "a@example.com",
				Password: "secret1", ConfirmPassword: "secret2",
			},
			wantErr: ErrPasswordMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.New()
			svc := NewService(kv)

			_, err := svc.Register(context.Background(), tt.reg)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, kv.Len())
		})
	}
}

func TestRegister_Success(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	u, err := svc.Register(ctx, registration(" ava ", " a@example.com ", "secret1"))
	require.NoError(t, err)
	assert.Equal(t, "ava", u.Username)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, "secret1", u.Password)

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []User{*u}, users)
}

func TestRegister_PasswordNotTrimmed(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	_, err := svc.Register(ctx, registration("ava", "a@example.com", " pass "))
	require.NoError(t, err)

	_, err = svc.Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: "pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: " pass "})
	require.NoError(t, err)
}

func TestRegister_Uniqueness(t *testing.T) {
	tests := []struct {
		name    string
		second  Registration
		wantErr error
	}{
		{name: "same email different username", second: registration("bob", "a@example.com", "secret1"), wantErr: ErrUserExists},
		{name: "same username different email", second: registration("ava", "b@example.com", "secret1"), wantErr: ErrUserExists},
		{name: "different case is a different user", second: registration("Ava", "A@example.com", "secret1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(memory.New())
			ctx := context.Background()

			_, err := svc.Register(ctx, registration("ava", "a@example.com", "secret1"))
			require.NoError(t, err)

			_, err = svc.Register(ctx, tt.second)
			users, uErr := svc.Users(ctx)
			require.NoError(t, uErr)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, users, 1)
				return
			}
			require.NoError(t, err)
			assert.Len(t, users, 2)
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr error
	}{
		{
			name:  "all three match",
			creds: Credentials{Username: "ava", Email: "a@example.com", Password: "secret1"},
		},
		{
			name:  "surrounding whitespace on username and email",
			creds: Credentials{Username: " ava", Email: "a@example.com ", Password: "secret1"},
		},
		{
			name:    "wrong email",
			creds:   Credentials{Username: "ava", Email: "b@example.com", Password: "secret1"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "wrong password",
			creds:   Credentials{Username: "ava", Email: "a@example.com", Password: "secret2"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "fields from two different users",
			creds:   Credentials{Username: "ava", Email: "b@example.com", Password: "hunter22"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "missing email",
			creds:   Credentials{Username: "ava", Password: "secret1"},
			wantErr: ErrMissingFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(memory.New())
			ctx := context.Background()
			_, err := svc.Register(ctx, registration("ava", "a@example.com", "secret1"))
			require.NoError(t, err)
			_, err = svc.Register(ctx, registration("bob", "b@example.com", "hunter22"))
			require.NoError(t, err)

			sess, err := svc.Login(ctx, tt.creds)

			current, ok, sErr := svc.CurrentSession(ctx)
			require.NoError(t, sErr)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sess)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &Session{Username: "ava", Email: "a@example.com"}, sess)
			require.True(t, ok)
			assert.Equal(t, sess, current)
		})
	}
}

func TestLogin_OverwritesSession(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()
	_, err := svc.Register(ctx, registration("ava", "a@example.com", "secret1"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registration("bob", "b@example.com", "hunter22"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, Credentials{Username: "bob", Email: "b@example.com", Password: "hunter22"})
	require.NoError(t, err)

	current, ok, err := svc.CurrentSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", current.Username)
}

func TestLogin_NoUsers(t *testing.T) {
	svc := NewService(memory.New())

	_, err := svc.Login(context.Background(), Credentials{Username: "ava", Email: "a@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashedPasswords(t *testing.T) {
	kv := memory.New()
	svc := NewService(kv, WithHashedPasswords(bcrypt.MinCost))
	ctx := context.Background()

	u, err := svc.Register(ctx, registration("ava", "a@example.com", "secret1"))
	require.NoError(t, err)
	assert.True(t, u.Hashed)
	assert.True(t, strings.HasPrefix(u.Password, "$2a$"))
	assert.NotEqual(t, "secret1", u.Password)

	_, err = svc.Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: u.Password})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashedPasswords_AcceptsLegacyPlaintext(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeyUsers, []User{
		{Username: "ava", Email: "a@example.com", Password: "secret1"},
	}))

	svc := NewService(kv, WithHashedPasswords(bcrypt.MinCost))
	_, err := svc.Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
}

func TestLogin_PlaintextResemblingHash(t *testing.T) {
	password := "$2a$" + strings.Repeat("x", 56)
	kv := memory.New()
	svc := NewService(kv)
	ctx := context.Background()

	u, err := svc.Register(ctx, registration("ava", "a@example.com", password))
	require.NoError(t, err)
	assert.False(t, u.Hashed)
	assert.Equal(t, password, u.Password)

	_, err = svc.Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: password})
	require.NoError(t, err)

	hashed := NewService(kv, WithHashedPasswords(bcrypt.MinCost))
	_, err = hashed.Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: password})
	require.NoError(t, err)
}

func TestLogin_HashedRecordAfterHashingDisabled(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()

	_, err := NewService(kv, WithHashedPasswords(bcrypt.MinCost)).
		Register(ctx, registration("ava", "a@example.com", "secret1"))
	require.NoError(t, err)

	_, err = NewService(kv).Login(ctx, Credentials{Username: "ava", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
}

func TestValidate_CountsCharacters(t *testing.T) {
	_, err := Validate(registration("ava", "a@example.com", "ééééé"))
	require.ErrorIs(t, err, ErrPasswordTooShort)

	u, err := Validate(registration(" ava ", "a@example.com", "éééééé"))
	require.NoError(t, err)
	assert.Equal(t, "ava", u.Username)
}

func TestUsers_MalformedReadsAsEmpty(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyUsers, []byte(`not json`)))

	svc := NewService(kv)
	users, err := svc.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = svc.Register(ctx, registration("ava", "a@example.com", "secret1"))
	require.NoError(t, err)
}

func TestImport(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	svc := NewService(kv)

	_, err := svc.Register(ctx, registration("ava", "ava@example.com", "secret1"))
	require.NoError(t, err)

	res, err := svc.Import(ctx, []User{
		{Username: " ben ", Email: "ben@example.com", Password: "secret2"},
		{Username: "ava", Email: "new@example.com", Password: "secret3"},
		{Username: "cal", Email: "ben@example.com", Password: "secret4"},
		{Username: "dee", Email: "dee@example.com", Password: "short"},
		{Username: "", Email: "eve@example.com", Password: "secret5"},
		{Username: "gus", Email: "gus@example.com", Password: "ééé"},
		{Username: "fay", Email: "fay@example.com", Password: "secret6"},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 2, Invalid: 3, Duplicate: 2}, res)

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "ben", users[1].Username)
	assert.Equal(t, "fay", users[2].Username)

	_, err = svc.Login(ctx, Credentials{Username: "fay", Email: "fay@example.com", Password: "secret6"})
	require.NoError(t, err)
}

func TestImport_NothingAddedSkipsWrite(t *testing.T) {
	kv := memory.New()
	svc := NewService(kv)

	res, err := svc.Import(context.Background(), []User{{Username: "a", Email: "b", Password: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Invalid)
	assert.Zero(t, kv.Len())
}

func TestImport_Hashed(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	svc := NewService(kv, WithHashedPasswords(bcrypt.MinCost))

	res, err := svc.Import(ctx, []User{{Username: "ava", Email: "ava@example.com", Password: "secret1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].Hashed)
	assert.True(t, strings.HasPrefix(users[0].Password, "$2"))

	_, err = svc.Login(ctx, Credentials{Username: "ava", Email: "ava@example.com", Password: "secret1"})
	require.NoError(t, err)
}
