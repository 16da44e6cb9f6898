package whitelist

// DefaultDomains are trusted news outlets. Entries with a path only match
// that section of the site.
var DefaultDomains = []string{
	// United States
	"nytimes.com", "washingtonpost.com", "wsj.com", "cnn.com", "reuters.com", "apnews.com",
	"usatoday.com", "npr.org", "latimes.com", "foxnews.com", "nbcnews.com", "cbsnews.com",
	"politico.com", "thehill.com", "bloomberg.com", "cnbc.com", "abcnews.go.com",
	"time.com", "newyorker.com", "theatlantic.com", "slate.com", "vox.com", "buzzfeednews.com",
	"axios.com", "foreignpolicy.com", "pbs.org", "msnbc.com", "thedailybeast.com",
	"propublica.org", "motherjones.com", "fivethirtyeight.com", "bostonglobe.com",
	"chicagotribune.com", "sfchronicle.com", "seattletimes.com", "dallasnews.com",
	"newsweek.com", "usnews.com", "businessinsider.com", "forbes.com", "fortune.com",

	// United Kingdom
	"bbc.co.uk", "bbc.com", "theguardian.com", "telegraph.co.uk", "independent.co.uk", "thetimes.co.uk",
	"ft.com", "economist.com", "reuters.co.uk", "sky.com", "channel4.com",
	"dailymail.co.uk", "mirror.co.uk", "express.co.uk", "standard.co.uk", "spectator.co.uk",
	"newstatesman.com", "politico.eu", "inews.co.uk", "metro.co.uk", "theweek.co.uk",
	"lbc.co.uk", "itv.com", "newscientist.com", "wired.co.uk", "theconversation.com",

	// India
	"thehindu.com", "timesofindia.indiatimes.com", "indianexpress.com", "ndtv.com",
	"hindustantimes.com", "news18.com", "economictimes.indiatimes.com", "thequint.com",
	"telegraphindia.com", "theprint.in", "thelogicalindian.com", "thewire.in", "indiaspend.com",
	"businesstoday.in", "livemint.com", "firstpost.com", "indiatoday.in", "outlookindia.com",
	"financialexpress.com", "deccanherald.com", "tribuneindia.com", "thehindubusinessline.com",
	"thestatesman.com", "newindianexpress.com", "asianage.com", "dnaindia.com",
	"moneycontrol.com", "business-standard.com", "frontline.thehindu.com", "aajtak.intoday.in",
	"zeenews.india.com", "republicworld.com", "abplive.com", "thebridge.in", "barandbench.com",
	"livelaw.in", "newslaundry.com", "caravan.com", "indialegallive.com", "downtoearth.org.in",
	"forbesindia.com", "swarajyamag.com", "thenewsminute.com", "exchange4media.com", "medianama.com",
	"yourstory.com", "inc42.com", "entrackr.com", "vccircle.com", "thekashmirmonitor.net",
	"kashmirtimes.com", "greaterkashmir.com", "northeasttoday.in", "eastmojo.com", "nenow.in",
	"sentinelassam.com", "nagalandpost.com", "morungexpress.com", "theshillongtimes.com",
	"thesangaiexpress.com", "echoofindia.com", "sikhtimes.com", "punjabnewsexpress.com",
	"daijiworld.com", "thehansindia.com", "telanganatoday.com", "deccanchronicle.com",
	"mathrubhumi.com", "manoramaonline.com", "theweek.in", "opindia.com", "jansatta.com",

	// Canada
	"cbc.ca", "globalnews.ca", "thestar.com", "nationalpost.com", "theglobeandmail.com",
	"ctv.ca", "ctvnews.ca", "torontosun.com", "macleans.ca", "huffingtonpost.ca",

	// Australia
	"abc.net.au", "smh.com.au", "theage.com.au", "news.com.au", "9news.com.au",
	"theaustralian.com.au", "sbs.com.au", "theguardian.com.au", "canberratimes.com.au",

	// International
	"aljazeera.com", "france24.com", "dw.com", "euronews.com", "un.org", "who.int",
	"hrw.org", "amnesty.org", "project-syndicate.org", "nature.com", "sciencemag.org",
	"scientificamerican.com", "spiegel.de/international", "lemonde.fr/en", "japantimes.co.jp",
	"scmp.com", "straitstimes.com", "thejakartapost.com", "koreatimes.co.kr",
	"themoscowtimes.com", "kyivpost.com", "haaretz.com", "jpost.com", "arabnews.com",
	"timesofisrael.com", "middleeasteye.net", "gulf-times.com", "thenational.ae",
	"egyptindependent.com", "mg.co.za", "news24.com", "afr.com",
}
