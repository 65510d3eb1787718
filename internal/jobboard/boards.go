package jobboard

type ID string

const (
	Unknown      ID = "unknown"
	LinkedIn     ID = "linkedin"
	Indeed       ID = "indeed"
	Glassdoor    ID = "glassdoor"
	Monster      ID = "monster"
	ZipRecruiter ID = "ziprecruiter"
	Amazon       ID = "amazon"
	Google       ID = "google"
	Meta         ID = "meta"
	Apple        ID = "apple"
	Netflix      ID = "netflix"
	Microsoft    ID = "microsoft"
	Nvidia       ID = "nvidia"
	TikTok       ID = "tiktok"
	Disney       ID = "disney"
	Mux          ID = "mux"
	Greenhouse   ID = "greenhouse"
	Wellfound    ID = "wellfound"
	BuiltIn      ID = "builtin"
)

type board struct {
	id      ID
	domains []string
}

// Matched by host suffix on a label boundary, first entry wins.
var knownBoards = []board{
	{LinkedIn, []string{"linkedin.com"}},
	{Indeed, []string{"indeed.com"}},
	{Glassdoor, []string{"glassdoor.com"}},
	{Monster, []string{"monster.com"}},
	{ZipRecruiter, []string{"ziprecruiter.com"}},
	{Amazon, []string{"amazon.jobs"}},
	{Google, []string{"careers.google.com"}},
	{Meta, []string{"metacareers.com"}},
	{Apple, []string{"jobs.apple.com"}},
	{Netflix, []string{"netflix.wd1.myworkdayjobs.com", "jobs.netflix.com"}},
	{Microsoft, []string{"microsoft.com"}},
	{Nvidia, []string{"nvidia.com", "nvidia.wd5.myworkdayjobs.com"}},
	{TikTok, []string{"tiktok.com", "lifeattiktok.com"}},
	{Disney, []string{"disneycareers.com"}},
	{Mux, []string{"mux.com"}},
	{Greenhouse, []string{"greenhouse.io"}},
	{Wellfound, []string{"wellfound.com"}},
	{BuiltIn, []string{"builtinnyc.com", "builtin.com"}},
}
