package models

import "time"

// SettingsID is the key of the single site-settings row.
const SettingsID = "main"

type SocialLinks struct {
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	Twitter   string `json:"twitter"`
	TikTok    string `json:"tiktok"`
	WhatsApp  string `json:"whatsapp"`
	YouTube   string `json:"youtube"`
	Pinterest string `json:"pinterest"`
}

type ContactInfo struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type HeroSection struct {
	Tagline     string `json:"tagline"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type AboutSection struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Quote    string `json:"quote"`
	ImageURL string `json:"image_url"`
}

type ThemeColors struct {
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	Accent        string `json:"accent"`
	Background    string `json:"background"`
	Surface       string `json:"surface"`
	TextPrimary   string `json:"text_primary"`
	TextSecondary string `json:"text_secondary"`
}

type LayoutSettings struct {
	ShowHero         bool   `json:"show_hero"`
	ShowCategories   bool   `json:"show_categories"`
	ShowFeatured     bool   `json:"show_featured"`
	ShowAboutSnippet bool   `json:"show_about_snippet"`
	ShowNewsletter   bool   `json:"show_newsletter"`
	NavbarStyle      string `json:"navbar_style"`
	FooterStyle      string `json:"footer_style"`
	ProductCardStyle string `json:"product_card_style"`
}

// SiteSettings is the admin-editable branding document. Nested sections are
// stored as JSON text.
type SiteSettings struct {
	ID             string         `gorm:"primaryKey;size:16"        json:"id"`
	BusinessName   string         `gorm:"size:255"                  json:"business_name"`
	Tagline        string         `gorm:"size:255"                  json:"tagline"`
	LogoURL        string         `gorm:"size:1000"                 json:"logo_url"`
	SocialLinks    SocialLinks    `gorm:"type:text;serializer:json" json:"social_links"`
	ContactInfo    ContactInfo    `gorm:"type:text;serializer:json" json:"contact_info"`
	HeroSection    HeroSection    `gorm:"type:text;serializer:json" json:"hero_section"`
	AboutSection   AboutSection   `gorm:"type:text;serializer:json" json:"about_section"`
	FooterText     string         `gorm:"type:text"                 json:"footer_text"`
	ThemeColors    ThemeColors    `gorm:"type:text;serializer:json" json:"theme_colors"`
	LayoutSettings LayoutSettings `gorm:"type:text;serializer:json" json:"layout_settings"`
	UpdatedAt      time.Time      `json:"-"`
}

// DefaultSiteSettings is what the first read of the settings stores.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		ID:           SettingsID,
		BusinessName: "Perennia",
		Tagline:      "Handcrafted Luxury from Barbados",
		LogoURL:      "/logo-transparent.png",
		ContactInfo: ContactInfo{
			Address: "Bridgetown, Barbados",
			Phone:   "+1 (246) 123-4567",
			Email:   "info@perennia.bb",
		},
		HeroSection: HeroSection{
			Tagline:     "Handcrafted in Barbados",
			Title:       "Luxury Artisan",
			Subtitle:    "Gifts & Décor",
			Description: "Discover our collection of handcrafted resin art, natural body care, and artisan candles. Each piece crafted with love and Caribbean spirit.",
			ImageURL:    "https://images.unsplash.com/photo-1668086682339-f14262879c18?crop=entropy&cs=srgb&fm=jpg&q=85",
		},
		AboutSection: AboutSection{
			Title: "Crafted with Love, Inspired by the Caribbean",
			Content: "Perennia was born from a deep passion for artistry and the enchanting beauty of Barbados. " +
				"What started as a personal creative journey has blossomed into a celebration of Caribbean craftsmanship.\n\n" +
				"Based in the vibrant island of Barbados, Perennia represents more than just handcrafted goods. " +
				"Each resin piece captures the turquoise waters of our beaches, each candle carries the warmth of our tropical sunsets.\n\n" +
				"Our body care line is crafted with natural ingredients, drawing from the healing traditions that have been passed down through generations.",
			Quote:    "Every piece tells a story of Caribbean beauty and timeless elegance.",
			ImageURL: "https://images.unsplash.com/photo-1759794108525-94ff060da692?crop=entropy&cs=srgb&fm=jpg&q=85",
		},
		FooterText: "Handcrafted luxury from Barbados. Each piece tells a story of Caribbean artistry and timeless elegance.",
		ThemeColors: ThemeColors{
			Primary:       "#D4AF37",
			Secondary:     "#40E0D0",
			Accent:        "#4A0E5C",
			Background:    "#050505",
			Surface:       "#0F0F0F",
			TextPrimary:   "#F5F5F5",
			TextSecondary: "#A3A3A3",
		},
		LayoutSettings: LayoutSettings{
			ShowHero:         true,
			ShowCategories:   true,
			ShowFeatured:     true,
			ShowAboutSnippet: true,
			ShowNewsletter:   true,
			NavbarStyle:      "glass",
			FooterStyle:      "full",
			ProductCardStyle: "default",
		},
	}
}

// ─── Partial update ───────────────────────────────────────────────────────────

type SocialLinksUpdate struct {
	Instagram *string `json:"instagram" validate:"nullable,max=500"`
	Facebook  *string `json:"facebook"  validate:"nullable,max=500"`
	Twitter   *string `json:"twitter"   validate:"nullable,max=500"`
	TikTok    *string `json:"tiktok"    validate:"nullable,max=500"`
	WhatsApp  *string `json:"whatsapp"  validate:"nullable,max=500"`
	YouTube   *string `json:"youtube"   validate:"nullable,max=500"`
	Pinterest *string `json:"pinterest" validate:"nullable,max=500"`
}

type ContactInfoUpdate struct {
	Address *string `json:"address" validate:"nullable,max=500"`
	Phone   *string `json:"phone"   validate:"nullable,max=30"`
	Email   *string `json:"email"   validate:"nullable,max=255"`
}

type HeroSectionUpdate struct {
	Tagline     *string `json:"tagline"     validate:"nullable,max=255"`
	Title       *string `json:"title"       validate:"nullable,max=255"`
	Subtitle    *string `json:"subtitle"    validate:"nullable,max=255"`
	Description *string `json:"description" validate:"nullable,max=2000"`
	ImageURL    *string `json:"image_url"   validate:"nullable,max=1000"`
}

type AboutSectionUpdate struct {
	Title    *string `json:"title"     validate:"nullable,max=255"`
	Content  *string `json:"content"   validate:"nullable,max=10000"`
	Quote    *string `json:"quote"     validate:"nullable,max=500"`
	ImageURL *string `json:"image_url" validate:"nullable,max=1000"`
}

type ThemeColorsUpdate struct {
	Primary       *string `json:"primary"        validate:"nullable,hex_color"`
	Secondary     *string `json:"secondary"      validate:"nullable,hex_color"`
	Accent        *string `json:"accent"         validate:"nullable,hex_color"`
	Background    *string `json:"background"     validate:"nullable,hex_color"`
	Surface       *string `json:"surface"        validate:"nullable,hex_color"`
	TextPrimary   *string `json:"text_primary"   validate:"nullable,hex_color"`
	TextSecondary *string `json:"text_secondary" validate:"nullable,hex_color"`
}

type LayoutSettingsUpdate struct {
	ShowHero         *bool   `json:"show_hero"`
	ShowCategories   *bool   `json:"show_categories"`
	ShowFeatured     *bool   `json:"show_featured"`
	ShowAboutSnippet *bool   `json:"show_about_snippet"`
	ShowNewsletter   *bool   `json:"show_newsletter"`
	NavbarStyle      *string `json:"navbar_style"       validate:"nullable,in=glass,solid,transparent"`
	FooterStyle      *string `json:"footer_style"       validate:"nullable,in=full,minimal"`
	ProductCardStyle *string `json:"product_card_style" validate:"nullable,in=default,minimal,detailed"`
}

// SiteSettingsUpdate is the admin's partial update. Scalars replace; nested
// sections merge field by field.
type SiteSettingsUpdate struct {
	BusinessName   *string               `json:"business_name"   validate:"nullable,min=1,max=255"`
	Tagline        *string               `json:"tagline"         validate:"nullable,max=255"`
	LogoURL        *string               `json:"logo_url"        validate:"nullable,max=1000"`
	SocialLinks    *SocialLinksUpdate    `json:"social_links"    validate:"nullable,dive"`
	ContactInfo    *ContactInfoUpdate    `json:"contact_info"    validate:"nullable,dive"`
	HeroSection    *HeroSectionUpdate    `json:"hero_section"    validate:"nullable,dive"`
	AboutSection   *AboutSectionUpdate   `json:"about_section"   validate:"nullable,dive"`
	FooterText     *string               `json:"footer_text"     validate:"nullable,max=2000"`
	ThemeColors    *ThemeColorsUpdate    `json:"theme_colors"    validate:"nullable,dive"`
	LayoutSettings *LayoutSettingsUpdate `json:"layout_settings" validate:"nullable,dive"`
}

// IsEmpty reports whether u carries no fields at all.
func (u SiteSettingsUpdate) IsEmpty() bool { return u == SiteSettingsUpdate{} }

// Apply merges u into s.
func (s *SiteSettings) Apply(u SiteSettingsUpdate) {
	set(&s.BusinessName, u.BusinessName)
	set(&s.Tagline, u.Tagline)
	set(&s.LogoURL, u.LogoURL)
	set(&s.FooterText, u.FooterText)

	if v := u.SocialLinks; v != nil {
		l := &s.SocialLinks
		set(&l.Instagram, v.Instagram)
		set(&l.Facebook, v.Facebook)
		set(&l.Twitter, v.Twitter)
		set(&l.TikTok, v.TikTok)
		set(&l.WhatsApp, v.WhatsApp)
		set(&l.YouTube, v.YouTube)
		set(&l.Pinterest, v.Pinterest)
	}
	if v := u.ContactInfo; v != nil {
		set(&s.ContactInfo.Address, v.Address)
		set(&s.ContactInfo.Phone, v.Phone)
		set(&s.ContactInfo.Email, v.Email)
	}
	if v := u.HeroSection; v != nil {
		h := &s.HeroSection
		set(&h.Tagline, v.Tagline)
		set(&h.Title, v.Title)
		set(&h.Subtitle, v.Subtitle)
		set(&h.Description, v.Description)
		set(&h.ImageURL, v.ImageURL)
	}
	if v := u.AboutSection; v != nil {
		a := &s.AboutSection
		set(&a.Title, v.Title)
		set(&a.Content, v.Content)
		set(&a.Quote, v.Quote)
		set(&a.ImageURL, v.ImageURL)
	}
	if v := u.ThemeColors; v != nil {
		c := &s.ThemeColors
		set(&c.Primary, v.Primary)
		set(&c.Secondary, v.Secondary)
		set(&c.Accent, v.Accent)
		set(&c.Background, v.Background)
		set(&c.Surface, v.Surface)
		set(&c.TextPrimary, v.TextPrimary)
		set(&c.TextSecondary, v.TextSecondary)
	}
	if v := u.LayoutSettings; v != nil {
		l := &s.LayoutSettings
		set(&l.ShowHero, v.ShowHero)
		set(&l.ShowCategories, v.ShowCategories)
		set(&l.ShowFeatured, v.ShowFeatured)
		set(&l.ShowAboutSnippet, v.ShowAboutSnippet)
		set(&l.ShowNewsletter, v.ShowNewsletter)
		set(&l.NavbarStyle, v.NavbarStyle)
		set(&l.FooterStyle, v.FooterStyle)
		set(&l.ProductCardStyle, v.ProductCardStyle)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
