package config

import (
	"time"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/fuzzy"
	"github.com/spigell/jobthai-scout/internal/pacing"
	"github.com/spigell/jobthai-scout/internal/qualify"
)

const (
	DefaultLoginURL    = "https://www.jobthai.com/th/employer"
	DefaultSearchURL   = "https://www3.jobthai.com/findresume/findresume.php?l=th"
	DefaultHistoryFile = "notification_history_uni.json"
	DefaultImageDir    = "resume_images"
	DefaultEnvFile     = "User.env"
)

// DefaultTargets are used when the config names no target lists at all.
var DefaultTargets = qualify.Targets{
	Institutions: []string{"วไลยอลงกรณ์", "Valaya Alongkorn Rajabhat University under the Royal Patronage"},
	Faculties:    []string{"เครื่องสำอาง", "Cosmetic Science"},
	Majors:       []string{"เครื่องสำอาง", "วิทยาศาสตร์เครื่องสำอาง", "Cosmetic Science", "Cosmetics", "Cosmetic"},
}

// DefaultKeywords are searched when none are configured.
var DefaultKeywords = []string{"วไลยอลงกรณ์ เครื่องสำอาง", "Cosmetic Valaya Alongkorn"}

// DefaultCategories tag records by desired position.
var DefaultCategories = []candidate.Category{
	{Name: "NPD", Titles: []string{"NPD", "R&D", "RD", "Research", "Development", "วิจัย", "พัฒนา", "Formulation", "สูตร"}},
	{Name: "PCM", Titles: []string{"PCM", "Production", "ผลิต", "Manufacturing", "Factory", "โรงงาน", "QA", "QC"}},
	{Name: "Sales", Titles: []string{"Sale", "Sales", "ขาย", "AE", "BD", "Customer", "Telesale"}},
	{Name: "MKT", Titles: []string{"MKT", "Marketing", "การตลาด", "Digital", "Content", "Media", "Ads"}},
	{Name: "Admin", Titles: []string{"Admin", "ธุรการ", "ประสานงาน", "Coordinator", "Document", "เอกสาร"}},
	{Name: "HR", Titles: []string{"HR", "Recruit", "สรรหา", "บุคคล", "Training", "Payroll"}},
	{Name: "SCM", Titles: []string{"SCM", "Supply Chain", "Logistic", "ขนส่ง", "Warehouse", "Stock", "Import", "Export"}},
	{Name: "PUR", Titles: []string{"PUR", "Purchase", "จัดซื้อ", "Sourcing", "Buyer"}},
	{Name: "DATA", Titles: []string{"Data", "ข้อมูล", "Analyst", "Statistic", "สถิติ"}},
	{Name: "Present", Titles: []string{"Present", "Speaker", "วิทยากร", "Trainer"}},
	{Name: "IT", Titles: []string{"IT", "Computer", "Software", "Programmer", "Developer"}},
	{Name: "RA", Titles: []string{"RA", "Regulatory", "อย.", "FDA", "ขึ้นทะเบียน"}},
	{Name: "ACC", Titles: []string{"ACC", "Account", "บัญชี", "Finance", "การเงิน", "Audit"}},
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	p := &c.Portal
	setString(&p.Driver, "playwright")
	setString(&p.LoginURL, DefaultLoginURL)
	setString(&p.SearchURL, DefaultSearchURL)
	setString(&p.ImageDir, DefaultImageDir)
	if p.Timeout == 0 {
		p.Timeout = 60 * time.Second
	}
	setInt(&p.LoginAttempts, 5)
	setInt(&p.PageAttempts, 3)

	if len(c.Search.Keywords) == 0 {
		c.Search.Keywords = append([]string(nil), DefaultKeywords...)
	}
	t := &c.Targets
	if len(t.Institutions) == 0 && len(t.Faculties) == 0 && len(t.Majors) == 0 {
		c.Targets = qualify.Targets{
			Institutions: append([]string(nil), DefaultTargets.Institutions...),
			Faculties:    append([]string(nil), DefaultTargets.Faculties...),
			Majors:       append([]string(nil), DefaultTargets.Majors...),
		}
	}
	setInt(&c.Threshold, fuzzy.DefaultThreshold)
	if c.Categories == nil {
		c.Categories = append([]candidate.Category(nil), DefaultCategories...)
	}

	w := &c.Watchlists
	setString(&w.Tier1, "tier1.yaml")
	setString(&w.Competitors, "compe.yaml")
	setString(&w.Clients, "co.yaml")

	r := &c.Routing
	setInt(&r.HotDays, 1)
	setInt(&r.BatchDays, 30)
	setInt(&r.HotCooldownDays, 1)
	setInt(&r.BatchCooldownDays, 7)
	setString(&r.HistoryFile, DefaultHistoryFile)
	setString(&r.FlushWeekday, "Monday")
	setString(&r.Timezone, "Asia/Bangkok")

	if c.Pacing == (pacing.Config{}) {
		c.Pacing = pacing.DefaultConfig()
	}

	setString(&c.Email.Host, "smtp.gmail.com")
	setInt(&c.Email.Port, 587)
	setString(&c.Postgres.Table, "candidates")
}

func setString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}
