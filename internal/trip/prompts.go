package trip

import (
	"time"

	"github.com/jmallory/tripflow/pkg/flow/template"
)

// agentSystemPrompt instructs the tool-calling agent for the search steps.
const agentSystemPrompt = "You are a powerful travel planning assistant. " +
	"Your goal is to create a complete and helpful itinerary. " +
	"Use the tools provided to find all the necessary information. " +
	"Do not make up information; rely on the tools for real-world data."

const parsePromptTemplate = `You are a meticulous data extraction assistant. Your sole purpose is to analyze a user's travel request and extract key information into a JSON object. Do not be conversational. Your only output should be the JSON object.

Instructions:
1. Today's date is ` + "`${today}`" + `. Use this to resolve relative dates like "next month" or "tomorrow".
2. You MUST provide a string value for "origin", "destination", "departure_date", and "return_date". Dates use the YYYY-MM-DD format.
3. If you absolutely cannot determine one of these required values from the user's request, you MUST use the string "UNKNOWN" as its value. Do NOT use null or omit the key.
4. Infer the 3-letter IATA code for all cities (e.g., San Francisco is SFO, London is LON).
5. Extract the user's email if it is present. If not, use null for the "user_email" field.

User Request:
"${user_prompt}"

Output JSON:`

// Placeholders substituted into the compile prompt when a search step never
// ran or produced nothing.
const (
	flightInfoMissing   = "No flight information was available or an error occurred."
	hotelInfoMissing    = "No hotel information was available or an error occurred."
	activityInfoMissing = "No activity information was available."
)

const compilePromptTemplate = `You are a world-class travel agent. Your task is to compile a complete, well-formatted travel itinerary in Markdown format using the information below.
Your tone should be friendly, helpful, and professional. If any piece of information is missing or unavailable (e.g., no hotels found), state that clearly and gracefully.

Original User Request: ${user_prompt}
---
Flight Information Found:
${flight_info}
---
Accommodation Information Found:
${hotel_info}
---
Local Activities & Recommendations:
${activity_info}
---

Instructions:
1. Start with a friendly greeting and a brief summary of the trip plan.
2. Create a clear "Flights" section with the details found.
3. Create an "Accommodation" section.
4. Create a "Suggested Itinerary & Activities" section. Organize the recommendations in a clear, easy-to-read format (like a list).
5. End with a friendly closing remark, like "Have a wonderful trip!".`

// parsePrompt renders the extraction prompt for the parse step.
func parsePrompt(today time.Time, userPrompt string) string {
	return template.Expand(parsePromptTemplate, map[string]any{
		"today":       today.Format("2006-01-02"),
		"user_prompt": userPrompt,
	})
}

// compilePrompt renders the itinerary prompt from the gathered state,
// substituting the fixed placeholders for absent sections.
func compilePrompt(s State) string {
	flightInfo := s.FlightInfo
	if flightInfo == "" {
		flightInfo = flightInfoMissing
	}
	hotelInfo := s.HotelInfo
	if hotelInfo == "" {
		hotelInfo = hotelInfoMissing
	}
	activityInfo := s.ActivityInfo
	if activityInfo == "" {
		activityInfo = activityInfoMissing
	}

	return template.Expand(compilePromptTemplate, map[string]any{
		"user_prompt":   s.UserPrompt,
		"flight_info":   flightInfo,
		"hotel_info":    hotelInfo,
		"activity_info": activityInfo,
	})
}
