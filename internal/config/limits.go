package config

const (
	// MaxDisplayNameLength bounds profile display names.
	MaxDisplayNameLength = 100

	// MaxHeadlineLength bounds the one-line profile headline.
	MaxHeadlineLength = 160

	// MaxBioLength bounds profile bios and project descriptions.
	MaxBioLength = 4000

	// MaxProjectTitleLength is the maximum length for project titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxProjectTitleLength = 255

	// MaxSkills caps the skill tags on a profile or project.
	MaxSkills = 30

	// MaxSkillLength bounds a single skill tag.
	MaxSkillLength = 40

	// MaxDeckSize caps a single deck page.
	MaxDeckSize = 100

	// DefaultDeckSize is used when the client does not ask for a size.
	DefaultDeckSize = 20
)
