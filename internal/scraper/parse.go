package scraper

import "strings"

// ParseSite resolves a provider name from user input.
func ParseSite(s string) (Site, error) {
	switch Site(strings.ToLower(strings.TrimSpace(s))) {
	case SiteLinkedIn:
		return SiteLinkedIn, nil
	case SiteIndeed:
		return SiteIndeed, nil
	case SiteGlassdoor:
		return SiteGlassdoor, nil
	case SiteZipRecruiter:
		return SiteZipRecruiter, nil
	default:
		return "", configError("unknown site " + strings.TrimSpace(s))
	}
}

// ParseJobType resolves a contract category from user input.
func ParseJobType(s string) (JobType, error) {
	switch JobType(strings.ToLower(strings.TrimSpace(s))) {
	case JobTypeFullTime:
		return JobTypeFullTime, nil
	case JobTypePartTime:
		return JobTypePartTime, nil
	case JobTypeContract:
		return JobTypeContract, nil
	case JobTypeInternship:
		return JobTypeInternship, nil
	default:
		return "", configError("unknown job type " + strings.TrimSpace(s))
	}
}

// ParseExperienceLevel resolves a seniority filter from user input.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	switch ExperienceLevel(strings.ToLower(strings.TrimSpace(s))) {
	case ExperienceInternship:
		return ExperienceInternship, nil
	case ExperienceEntry:
		return ExperienceEntry, nil
	case ExperienceAssociate:
		return ExperienceAssociate, nil
	case ExperienceMidSenior:
		return ExperienceMidSenior, nil
	case ExperienceDirector:
		return ExperienceDirector, nil
	case ExperienceExecutive:
		return ExperienceExecutive, nil
	default:
		return "", configError("unknown experience level " + strings.TrimSpace(s))
	}
}
