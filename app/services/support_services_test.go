package services_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/app/events"
	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/auth"
	"github.com/perennia/storefront/pkg/event"
	"github.com/perennia/storefront/pkg/storage"
)

func TestRegisterLoginMe(t *testing.T) {
	db := setup(t)
	svc := services.NewAuthService(repositories.NewUserRepository(db))
	ctx := context.Background()

	res, err := svc.Register(ctx, services.RegisterInput{
		Email:     " Ada@Example.com ",
		Password:  "s3cret!",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.NotEqual(t, "s3cret!", res.User.Password)

	claims, err := auth.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	_, err = svc.Register(ctx, services.RegisterInput{Email: "ADA@example.com", Password: "another", FirstName: "A", LastName: "L"})
	assert.Equal(t, http.StatusBadRequest, services.StatusOf(err))

	_, err = svc.Login(ctx, services.LoginInput{Email: "ada@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, services.StatusOf(err))
	_, err = svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "s3cret!"})
	assert.Equal(t, http.StatusUnauthorized, services.StatusOf(err))

	login, err := svc.Login(ctx, services.LoginInput{Email: "ADA@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	me, err := svc.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.FirstName)

	id, err := svc.Lookup(ctx, res.User.ID)
	require.NoError(t, err)
	assert.False(t, id.IsAdmin)

	_, err = svc.Me(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, services.StatusOf(err))
}

func TestSettingsDefaultsAndMerge(t *testing.T) {
	db := setup(t)
	svc := services.NewSettingsService(repositories.NewSettingsRepository(db))
	ctx := context.Background()

	defaults, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSiteSettings().BusinessName, defaults.BusinessName)

	_, err = svc.Update(ctx, models.SiteSettingsUpdate{})
	require.Error(t, err)
	assert.Equal(t, "No data to update", err.Error())

	name, title := "Perennia Studio", "Poured by hand"
	updated, err := svc.Update(ctx, models.SiteSettingsUpdate{
		BusinessName: &name,
		HeroSection:  &models.HeroSectionUpdate{Title: &title},
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.BusinessName)
	assert.Equal(t, title, updated.HeroSection.Title)
	assert.Equal(t, defaults.HeroSection.Subtitle, updated.HeroSection.Subtitle, "unnamed nested fields are kept")
	assert.Equal(t, defaults.ThemeColors, updated.ThemeColors)

	again, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, name, again.BusinessName, "cached settings are dropped on update")
}

func TestContactMessages(t *testing.T) {
	db := setup(t)
	svc := services.NewContactService(repositories.NewContactRepository(db))
	ctx := context.Background()

	var announced []events.ContactEvent
	event.Listen(events.ContactReceived, func(_ context.Context, p interface{}) {
		announced = append(announced, p.(events.ContactEvent))
	})

	msg, err := svc.Submit(ctx, services.ContactInput{
		Name:    " Grace ",
		Email:   "Grace@Example.com",
		Subject: "Custom tray",
		Message: "Do you take commissions?",
	})
	require.NoError(t, err)
	assert.False(t, msg.Read)
	assert.Equal(t, "grace@example.com", msg.Email)
	require.Len(t, announced, 1)
	assert.Equal(t, msg.ID, announced[0].MessageID)

	n, err := svc.Unread(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, svc.MarkRead(ctx, msg.ID))
	n, err = svc.Unread(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)

	assert.Equal(t, http.StatusNotFound, services.StatusOf(svc.MarkRead(ctx, "missing")))
}

func TestSeedAndAdminSetup(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	_, err := services.NewSetupService(db, true, nil).Seed(ctx)
	assert.Equal(t, http.StatusForbidden, services.StatusOf(err))

	svc := services.NewSetupService(db, false, services.NewCatalogService(repositories.NewProductRepository(db)))
	first, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Data seeded", first.Message)
	assert.Positive(t, first.ProductsCount)

	second, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Data already seeded", second.Message)
	assert.Zero(t, second.ProductsCount)

	admin, err := svc.CreateAdmin(ctx, "owner@perennia.example", "change-me")
	require.NoError(t, err)
	assert.Equal(t, "owner@perennia.example", admin.Email)

	_, err = svc.CreateAdmin(ctx, "other@perennia.example", "change-me")
	require.Error(t, err)
	assert.Equal(t, "Admin already exists", err.Error())
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestStoreImage(t *testing.T) {
	disk := storage.NewLocalDisk(t.TempDir(), "http://localhost:8001/storage")
	svc := services.NewUploadService(disk)
	ctx := context.Background()

	res, err := svc.StoreImage(ctx, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Path, "products/"))
	assert.True(t, strings.HasSuffix(res.Path, ".png"))
	assert.Equal(t, disk.URL(res.Path), res.URL)

	rc, err := disk.Get(ctx, res.Path)
	require.NoError(t, err)
	stored, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, pngHeader, stored)

	cases := map[string]struct {
		body   []byte
		detail string
	}{
		"empty":        {nil, "File is empty"},
		"not an image": {[]byte("plain text, not pixels"), "Only image uploads are allowed"},
		"too large":    {append(append([]byte{}, pngHeader...), make([]byte, services.MaxUploadBytes)...), "File too large (max 5 MB)"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.StoreImage(ctx, bytes.NewReader(tc.body))
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, services.StatusOf(err))
			assert.Equal(t, tc.detail, err.Error())
		})
	}
}
