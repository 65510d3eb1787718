package models

import (
	"sort"
	"strings"
)

// ResumeProfile is the parsed resume data used to populate application forms.
type ResumeProfile struct {
	Name           string            `json:"name"`
	Title          string            `json:"title"`
	Summary        string            `json:"summary"`
	ContactInfo    map[string]string `json:"contact_info"`
	Skills         []string          `json:"skills,omitempty"`
	Portfolio      map[string]string `json:"portfolio,omitempty"`
	CoreExperience []string          `json:"core_experience,omitempty"`
	Education      []string          `json:"education,omitempty"`
}

func (p ResumeProfile) Email() string {
	return p.contact("email")
}

func (p ResumeProfile) Phone() string {
	return p.contact("phone")
}

func (p ResumeProfile) contact(channel string) string {
	if p.ContactInfo == nil {
		return ""
	}
	return strings.TrimSpace(p.ContactInfo[channel])
}

func (p ResumeProfile) Clone() ResumeProfile {
	cp := p
	cp.ContactInfo = cloneMap(p.ContactInfo)
	cp.Portfolio = cloneMap(p.Portfolio)
	cp.Skills = cloneSlice(p.Skills)
	cp.CoreExperience = cloneSlice(p.CoreExperience)
	cp.Education = cloneSlice(p.Education)
	return cp
}

func cloneSlice(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// The master resume document format (base-resume.json). Profile() flattens it.

type Link struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

type PersonalInformation struct {
	FullName string `json:"full_name"`
	JobTitle string `json:"job_title"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Links    Link   `json:"links"`
}

type Skills struct {
	Languages   []string `json:"languages"`
	Frontend    []string `json:"frontend"`
	Backend     []string `json:"backend"`
	Databases   []string `json:"databases"`
	DevOpsInfra []string `json:"devops_infra"`
}

type Experience struct {
	Role     string `json:"role"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	GraduationYear string `json:"graduation_year"`
}

type Resume struct {
	PersonalInformation PersonalInformation `json:"personal_information"`
	Summary             string              `json:"summary"`
	Skills              Skills              `json:"skills"`
	Experience          []Experience        `json:"experience"`
	Education           Education           `json:"education"`
}

// Profile converts the document into the flat form-filling profile.
// Skills are de-duplicated and sorted since the profile treats them as a set.
func (r Resume) Profile() ResumeProfile {
	info := r.PersonalInformation
	profile := ResumeProfile{
		Name:        info.FullName,
		Title:       info.JobTitle,
		Summary:     r.Summary,
		ContactInfo: map[string]string{},
		Portfolio:   map[string]string{},
	}
	if info.Email != "" {
		profile.ContactInfo["email"] = info.Email
	}
	if info.Phone != "" {
		profile.ContactInfo["phone"] = info.Phone
	}
	if info.Location != "" {
		profile.ContactInfo["location"] = info.Location
	}
	if info.Links.LinkedIn != "" {
		profile.Portfolio["linkedin"] = info.Links.LinkedIn
	}
	if info.Links.GitHub != "" {
		profile.Portfolio["github"] = info.Links.GitHub
	}
	if info.Links.Portfolio != "" {
		profile.Portfolio["website"] = info.Links.Portfolio
	}

	seen := map[string]bool{}
	for _, group := range [][]string{r.Skills.Languages, r.Skills.Backend, r.Skills.Frontend, r.Skills.Databases, r.Skills.DevOpsInfra} {
		for _, s := range group {
			s = strings.TrimSpace(s)
			if s == "" || seen[strings.ToLower(s)] {
				continue
			}
			seen[strings.ToLower(s)] = true
			profile.Skills = append(profile.Skills, s)
		}
	}
	sort.Strings(profile.Skills)

	for _, exp := range r.Experience {
		profile.CoreExperience = append(profile.CoreExperience, strings.TrimSpace(exp.Role+" at "+exp.Company+" ("+exp.Duration+")"))
	}
	if r.Education.Degree != "" {
		profile.Education = append(profile.Education, strings.TrimSpace(r.Education.Degree+", "+r.Education.Institution+" "+r.Education.GraduationYear))
	}
	return profile
}
