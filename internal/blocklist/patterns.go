package blocklist

// DefaultPatterns lists the built-in suppression rules: ad networks,
// cookie-consent widgets, and tracking/analytics endpoints.
// Each entry is a glob matched against the full request URL.
var DefaultPatterns = []string{
	// Ad networks
	"*doubleclick.net*",
	"*googlesyndication.com*",
	"*googleadservices.com*",
	"*google.com/pagead/*",
	"*adservice.google.*",
	"*amazon-adsystem.com*",
	"*adnxs.com*",
	"*adsrvr.org*",
	"*criteo.com*",
	"*criteo.net*",
	"*taboola.com*",
	"*outbrain.com*",
	"*pubmatic.com*",
	"*rubiconproject.com*",
	"*openx.net*",
	"*casalemedia.com*",
	"*moatads.com*",
	"*media.net/*",
	"*advertising.com*",
	"*adform.net*",
	"*smartadserver.com*",
	"*yieldmo.com*",
	"*sharethrough.com*",
	"*3lift.com*",
	"*teads.tv*",
	"*revcontent.com*",
	"*mgid.com*",
	"*zedo.com*",
	"*bidswitch.net*",
	"*contextweb.com*",

	// Cookie consent
	"*cookielaw.org*",
	"*onetrust.com*",
	"*cookiebot.com*",
	"*consensu.org*",
	"*trustarc.com*",
	"*quantcast.com*",
	"*quantserve.com*",
	"*usercentrics.eu*",
	"*didomi.io*",
	"*cookie-script.com*",
	"*termly.io*",
	"*iubenda.com*",

	// Analytics and tracking
	"*google-analytics.com*",
	"*googletagmanager.com*",
	"*googletagservices.com*",
	"*analytics.google.com*",
	"*connect.facebook.net*",
	"*facebook.com/tr*",
	"*hotjar.com*",
	"*hotjar.io*",
	"*mixpanel.com*",
	"*segment.com/analytics*",
	"*segment.io*",
	"*amplitude.com*",
	"*fullstory.com*",
	"*mouseflow.com*",
	"*crazyegg.com*",
	"*clarity.ms*",
	"*newrelic.com*",
	"*nr-data.net*",
	"*scorecardresearch.com*",
	"*chartbeat.com*",
	"*bat.bing.com*",
	"*ads.linkedin.com*",
	"*snap.licdn.com*",
	"*static.ads-twitter.com*",
	"*analytics.tiktok.com*",
	"*pinterest.com/ct*",
	"*hubspot.com/analytics*",
}
