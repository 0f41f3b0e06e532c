package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// CompanyProfile holds the fixed company texts woven into every proposal.
type CompanyProfile struct {
	Name        string   `yaml:"name" validate:"required"`
	Mission     string   `yaml:"mission" validate:"required"`
	Vision      string   `yaml:"vision" validate:"required"`
	Approach    string   `yaml:"approach" validate:"required"`
	Results     string   `yaml:"results" validate:"required"`
	Heritage    string   `yaml:"heritage" validate:"required"`
	Engineering string   `yaml:"engineering" validate:"required"`
	Delivery    string   `yaml:"delivery" validate:"required"`
	Security    string   `yaml:"security" validate:"required"`
	Partnership string   `yaml:"partnership" validate:"required"`
	References  string   `yaml:"references" validate:"required"`
	Catalog     []string `yaml:"catalog" validate:"dive,required"`
}

// DefaultCatalog is the service catalog offered when the profile names none.
var DefaultCatalog = []string{
	"Cloud Migration",
	"Managed Services",
	"Application Development",
	"Security & Compliance",
	"Data Engineering",
	"DevOps & Automation",
}

// DefaultCompanyProfile returns the built-in profile.
func DefaultCompanyProfile() CompanyProfile {
	return CompanyProfile{
		Name:        "Vortex Solutions",
		Mission:     "At Vortex Solutions, our mission is to empower organizations by transforming complex IT infrastructure into a strategic asset. We combine engineering excellence with unwavering delivery discipline to provide secure, scalable, and proactive managed services. By bridging the gap between legacy systems and future-ready technology, we ensure our partners can focus on their core mission while we manage the digital engine that drives their success.",
		Vision:      "To be the global benchmark for trust and innovation in IT Managed Services, recognized for fostering a security-first culture and engineering excellence. We envision a future where technology is never a barrier to progress, but a seamless, invisible force that enables organizations to reach their highest potential with absolute reliability.",
		Approach:    "We believe that every client is unique. Our solutions are tailored to your specific needs, ensuring that you receive maximum value from your IT investments. From initial consultation to final delivery, we prioritize transparency, communication, and measurable results.",
		Results:     "Our track record includes successful projects for public sector agencies, non-profits, and enterprises. We leverage best-in-class methodologies and the latest technology to deliver on time and on budget.",
		Heritage:    "Founded on the principles of technical innovation and unwavering reliability, Vortex Solutions has evolved into a premier partner for organizations navigating the complexities of the modern digital landscape. Our mission is to empower our clients by bridging the gap between legacy infrastructure and future-ready technology. With a proven track record supporting complex agencies like the Mountains Recreation and Conservation Authority, we bring decades of collective experience to ensure that technical transformation serves as a powerful engine for your organizational goals.",
		Engineering: "At the heart of our operations is a commitment to 'Engineering Excellence.' This is a technical standard that governs how we manage your critical assets, including the 112 PCs, 4 Dell PowerEdge Servers, and 5 SonicWALL Firewalls identified in your scope. We employ a data-driven approach to infrastructure management, ensuring that every environment is optimized for peak performance, scalability, and maximum uptime. Our senior engineers hold top-tier certifications to ensure that the technical advice we provide is rooted in current global industry best practices.",
		Delivery:    "We recognize that agility is just as important as stability. Our 'Delivery Discipline' framework ensures that we meet aggressive timelines through a structured Project Management Office (PMO) approach. We utilize high-fidelity methodologies to provide transparent, real-time reporting and consistent quality targets. We do not just solve problems; we deliver validated solutions within the agreed-upon windows, ensuring that your operations across all 11 locations remain uninterrupted during critical maintenance or transition periods.",
		Security:    "In an era of sophisticated cyber threats, security is never an 'add-on'—it is integrated into the foundation of every service we provide. Our security-first culture means that encryption, identity management, and proactive threat hunting are standard components of our Managed Services. We adhere to rigorous standards, providing our clients with enterprise-grade protection that secures every endpoint, from onsite servers to the 40 remote access users in your fleet.",
		Partnership: "We view our clients not as customers, but as strategic partners. Our engagement model is built on transparency, proactive communication, and shared success. By choosing Vortex Solutions, you are gaining a dedicated extension of your internal team—one that is committed to your long-term roadmap. We take the time to understand your unique operational culture, ensuring that our IT solutions integrate seamlessly with your existing human workflows.",
		References:  "[1] Example Reference 1\n[2] Example Reference 2\n[3] Example Reference 3\n[4] Example Reference 4\n[5] Example Reference 5",
		Catalog:     append([]string(nil), DefaultCatalog...),
	}
}

// LoadCompanyProfile builds the profile from defaults, then the optional YAML
// file at path, then COMPANY_<FIELD> environment variables, and validates it.
func LoadCompanyProfile(path string) (*CompanyProfile, error) {
	profile := DefaultCompanyProfile()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read company profile %s: %w", path, err)
		}
		var fromFile CompanyProfile
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse company profile YAML: %w", err)
		}
		profile.overlay(fromFile)
	}

	profile.applyEnv(os.LookupEnv)

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Validate checks that every profile field is non-empty.
func (p *CompanyProfile) Validate() error {
	err := validator.New().Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace())
		}
		return fmt.Errorf("company profile invalid: empty fields: %s", strings.Join(fields, ", "))
	}
	return fmt.Errorf("company profile invalid: %w", err)
}

// fields pairs each text field with its environment suffix.
func (p *CompanyProfile) fields() []struct {
	env string
	ptr *string
} {
	return []struct {
		env string
		ptr *string
	}{
		{"NAME", &p.Name},
		{"MISSION", &p.Mission},
		{"VISION", &p.Vision},
		{"APPROACH", &p.Approach},
		{"RESULTS", &p.Results},
		{"HERITAGE", &p.Heritage},
		{"ENGINEERING", &p.Engineering},
		{"DELIVERY", &p.Delivery},
		{"SECURITY", &p.Security},
		{"PARTNERSHIP", &p.Partnership},
		{"REFERENCES", &p.References},
	}
}

func (p *CompanyProfile) overlay(other CompanyProfile) {
	src := other.fields()
	for i, f := range p.fields() {
		if v := *src[i].ptr; v != "" {
			*f.ptr = v
		}
	}
	if other.Catalog != nil {
		p.Catalog = other.Catalog
	}
}

func (p *CompanyProfile) applyEnv(lookup func(string) (string, bool)) {
	for _, f := range p.fields() {
		if v, ok := lookup("COMPANY_" + f.env); ok {
			*f.ptr = v
		}
	}
	if v, ok := lookup("COMPANY_CATALOG"); ok {
		p.Catalog = splitCatalog(v)
	}
}

func splitCatalog(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
