package engine

// Prompt texts for the research engines. Each one instructs the generator
// to answer with bare JSON; responses still get the full extraction
// fallback chain because models routinely wrap output anyway.

const metricPromptFormat = `You are a data analyst extracting university statistics.

From the following search results, find the most accurate value for this metric about {campus}:

Metric: %s

Prefer primary sources: Common Data Set reports, official university statistics, US News data, IPEDS data.

Search Results:
{corpus}

Return ONLY a JSON object:
{"value": "the value as a short string", "source": "where it came from", "confidence": "high/medium/low"}

If no data found, return: {"value": null, "source": null, "confidence": "none"}`

const diamondFinderPrompt = `You are a journalist covering college subcultures. Your job is to find the most interesting, authentic, and high-energy student communities.

Analyze the following articles, blog posts, and forum threads about {campus}.

Identify up to 10 'diamond in the rough' organizations. These are NOT generic pre-professional clubs. They are the quirky, passionate, and active groups that define the soul of the campus.

For each, provide:
- name: exact organization name
- category: type of organization
- story: one-sentence story that makes it compelling for a community-focused startup
- signal: what evidence shows they are active and passionate

Search Results:
{corpus}

Return ONLY valid JSON:
{"diamond_orgs": [{"name": "Berkeley Cheese Club", "category": "Food/Social", "story": "Weekly cheese tastings create a tight-knit foodie community", "signal": "Active Instagram with 500+ engaged followers"}]}`

const eventExtractionPrompt = `You are an event intelligence specialist for a social app for college students. Extract upcoming events from the following campus event information for {campus}.

For each event you find, extract:
- event_name: the name/title of the event
- hosting_org: the organization hosting it (if mentioned)
- date: when it is happening (if specified)
- location: where it is happening (if specified)
- event_type: category (e.g., "Concert", "Sports", "Academic", "Social", "Career")

Focus on events that are upcoming or recently announced, student-focused, and have clear hosting organizations.

Event Content:
{corpus}

Return a JSON list of up to 15 events. If a date is unclear, still include the event with "TBD" for date:
[{"event_name": "Spring Concert", "hosting_org": "Programming Board", "date": "April 15", "location": "Main Quad", "event_type": "Concert"}]`

const opportunityTaggerPrompt = `You are a go-to-market strategist. For each event in the list, add an "opportunity" tag based on our playbook.

Opportunity types:
- "Sponsorship": major concerts, sporting events, large campus-wide events (high visibility)
- "Midterm Fuel": study breaks, finals week events, academic support events (stress relief timing)
- "Targeted Friendship Fund": events hosted by our diamond target organizations (direct outreach)
- "Community Building": freshman orientation, club fairs, social mixers (recruitment opportunities)
- "No Opportunity": events that do not fit the strategy

Diamond target organizations (prioritize these):
{diamonds}

Events list:
{events}

Return the SAME list of events with "opportunity" added to each event, as a JSON array.`

const linkAnalystPrompt = `You are analyzing a student organization homepage to find contact information paths.

Homepage URL: {url}

Page content:
{corpus}

Identify up to 3 URLs from this page most likely to list people and emails: "contact", "about", "staff", "masthead", "officers", "leadership" pages. Prefer URLs on the same site.

Return ONLY a JSON list of absolute URLs: ["https://...", "https://..."]`

const contactExtractionPrompt = `You are an aggressive data extraction specialist. From the following text scraped from an organization's website, find ANY contact information available.

Look for ANY email addresses, even if they are not clearly labeled: editor@, info@, contact@ addresses, firstname.lastname@domain.edu, emails in staff listings, about pages, mailto links, and footer text.

Find:
- organization_name: the official name of the organization
- leader_name: look for titles like President, Editor-in-Chief, Coordinator, Chair, Director
- leader_title: the specific title/position
- contact_email: ANY email address found
- phone: phone number if available

Website Content:
{corpus}

Return ONLY valid JSON:
{"organization_name": "The Water Tower", "leader_name": "Jane Doe", "leader_title": "Editor-in-Chief", "contact_email": "watertower@example.edu", "phone": "802-555-0123"}

If a field cannot be found, return null for that key. Never invent a value.`

const contactStructuringPrompt = `You are a university contact analyst for {campus}.

Analyze these email addresses and structure them into student contact records. For each email, infer the likely name, title, and organization from the address pattern.

EMAIL ADDRESSES:
{emails}

For each email return:
- name: inferred from the email prefix if possible, otherwise null
- title: inferred from the pattern (president, coordinator, editor, ...)
- organization: what student org this likely belongs to
- email: the original address
- confidence: high/medium/low based on how clear the inference is

Return a JSON array of contact objects:
[{"name": "John Smith", "title": "Student Body President", "organization": "Student Government Association", "email": "j.smith@example.edu", "confidence": "high"}]`

const baselineDossierPrompt = `You are a campus intelligence analyst. Using only what you already know about {campus}, draft a baseline dossier.

Return ONLY valid JSON:
{
  "diamond_orgs": [{"name": "...", "category": "...", "story": "...", "signal": "..."}],
  "third_places": [{"name": "...", "type": "...", "popularity_level": "...", "student_activity": "..."}],
  "recent_findings": ["known recent developments on campus"]
}

Include up to 8 organizations and up to 5 third places. If you are not confident something still exists, leave it out.`

const augmentationPlannerPrompt = `You are a research strategist. Below is a baseline dossier for {campus} produced from prior knowledge. Design web searches that would verify, refresh, and extend it.

Baseline dossier:
{baseline}

Return ONLY valid JSON with 4-6 targeted search queries:
{"augmentation_queries": ["query one", "query two"]}`

const finalSynthesisPrompt = `You are a campus intelligence analyst. Merge the baseline dossier with fresh web research for {campus}. Prefer fresh research where the two conflict; drop anything the research shows is defunct.

Baseline dossier:
{baseline}

Fresh research:
{corpus}

Return ONLY valid JSON with the same shape as the baseline:
{
  "diamond_orgs": [...],
  "third_places": [...],
  "recent_findings": ["what the fresh research added or corrected"]
}`

const assessmentPrompt = `You are the Head of Growth. Evaluate {campus} for go-to-market readiness based on this intelligence.

QUANTITATIVE METRICS (quality score {quality}%):
{scorecard}

DIAMOND ORGANIZATIONS:
{diamonds}

CONTACTS:
{contacts}

EVENT OPPORTUNITIES:
{events}

Assessment criteria:
- Tier 1: ready for immediate launch (high data quality + contacts + events)
- Tier 2: launch next quarter (good fundamentals, some gaps)
- Tier 3: re-evaluate later (insufficient intelligence or poor fit)

Return ONLY valid JSON:
{"tier": "Tier 1", "reasoning": "why", "first_outreach_target": "specific organization or contact to approach first", "key_opportunities": ["top", "three"], "notes": "strategic insights and concerns"}`

const reconSystemPrompt = `You are an elite intelligence analyst conducting reconnaissance on university athletic gatekeepers.

Your mission: build a comprehensive dossier on the target university that identifies key decision-makers in sports medicine and performance, validates their industry influence, and maps the local sports medicine ecosystem.

Research protocol:

PHASE 1 - GATEKEEPER IDENTIFICATION. Find the official athletics website domain. Search it for staff directories, sports medicine pages, and performance staff pages. Extract contacts for roles like Director of Sports Medicine, Head Athletic Trainer, Director of Performance, Team Physicians, Director of Sports Nutrition. Hunt for emails on bio and contact pages; only give up on an email when none exists anywhere.

PHASE 2 - INFLUENCE VALIDATION. For each person, run targeted searches for professional association activity, conference talks, and published research. If you find anything, set is_thought_leader true with specific evidence.

PHASE 3 - LOCAL ECOSYSTEM MAPPING. Find the private clinics and practitioners trusted by elite athletes near campus: sports physical therapy, sports medicine clinics, preferred providers, performance centers. Name specific practitioners and affiliations.

When you have enough, return ONLY a JSON object:
{
  "university": "...",
  "athletics_domain": "official athletics website domain",
  "gatekeepers": [{"name": "...", "title": "...", "email": "... or null", "phone": "... or null", "bio_url": "... or null", "is_thought_leader": false, "wom_evidence": "... or null", "seniority_level": "Director/Head/Associate/Team", "years_at_institution": "... or null"}],
  "local_ecosystem": [{"clinic_name": "...", "key_practitioners": "...", "specialization": "...", "athletic_affiliations": "...", "website": "...", "location": "..."}],
  "research_notes": "purchasing processes, recent hires, facility upgrades, etc."
}

Use the web_search tool as often as needed. Be thorough; this is intelligence work, not a quick scrape.`
