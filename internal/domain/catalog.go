package domain

// TemplateEffect is one photo effect offered by the catalog.
type TemplateEffect struct {
	ID                int     `json:"id"`
	Title             string  `json:"title"`
	Preview           *string `json:"preview,omitempty"`
	PreviewProduction *string `json:"previewProduction,omitempty"`
	PreviewBefore     *string `json:"previewBefore,omitempty"`
	Gender            *string `json:"gender,omitempty"`
	Prompt            *string `json:"prompt,omitempty"`
	IsEnabled         bool    `json:"isEnabled"`
}

// PreviewURL returns the preferred preview: production, then generic, then
// the "before" image. Empty when the effect has none.
func (e TemplateEffect) PreviewURL() string {
	if v := firstPresent(e.PreviewProduction, e.Preview, e.PreviewBefore); v != nil {
		return *v
	}
	return ""
}

// TemplateCategory groups effects for display.
type TemplateCategory struct {
	ID           int              `json:"id"`
	Title        string           `json:"title"`
	Description  *string          `json:"description,omitempty"`
	Preview      *string          `json:"preview,omitempty"`
	IsNew        bool             `json:"isNew"`
	TotalEffects int              `json:"totalEffects"`
	TotalUsed    int              `json:"totalUsed"`
	Effects      []TemplateEffect `json:"effects"`
}

// Catalog is the template list fetched at session start.
type Catalog struct {
	Categories     []TemplateCategory `json:"categories"`
	TotalTemplates int                `json:"totalTemplates"`
	TotalUsed      int                `json:"totalUsed"`
}

// EffectByID finds an effect in any category.
func (c *Catalog) EffectByID(id int) (TemplateEffect, bool) {
	if c == nil {
		return TemplateEffect{}, false
	}
	for _, cat := range c.Categories {
		for _, eff := range cat.Effects {
			if eff.ID == id {
				return eff, true
			}
		}
	}
	return TemplateEffect{}, false
}

// EnabledEffects lists enabled effects in catalog order, each at most once.
func (c *Catalog) EnabledEffects() []TemplateEffect {
	if c == nil {
		return nil
	}
	seen := make(map[int]struct{})
	var out []TemplateEffect
	for _, cat := range c.Categories {
		for _, eff := range cat.Effects {
			if !eff.IsEnabled {
				continue
			}
			if _, ok := seen[eff.ID]; ok {
				continue
			}
			seen[eff.ID] = struct{}{}
			out = append(out, eff)
		}
	}
	return out
}

// PreviewURLs returns one preview URL per effect for cache warm-up.
func (c *Catalog) PreviewURLs() []string {
	if c == nil {
		return nil
	}
	var urls []string
	for _, cat := range c.Categories {
		for _, eff := range cat.Effects {
			if u := eff.PreviewURL(); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}
