package extractor

// MetaPrompt asks for the full field set. It follows the media parts.
const MetaPrompt = `
You are an OMR metadata extractor.

Return JSON ONLY in this exact structure:
{
  "USN": "",
  "CourseID": "",
  "Semester": "",
  "CourseName": "",
  "Date": "",
  "Institute": ""
}

Rules:
- USN pattern: 1 digit + 2 letters + 2 digits + 2 letters + 3 digits
- CourseID: 3 letters + 3 digits + maybe 1 letter
- Semester: 1 digit
- Only output valid JSON.
`

// CourseRecoverPrompt is sent with the full page only, when the first answer had no course name.
const CourseRecoverPrompt = `
Extract ONLY the course name. Return JSON:
{"CourseName": "..."}
`
