package redaction

import "strings"

// commonFirstNames narrows the "given surname" pattern to reduce false
// positives on arbitrary capitalized word pairs.
var commonFirstNames = []string{
	"John", "Jane", "David", "Michael", "Robert", "Mary", "William", "James",
	"Patricia", "Jennifer", "Linda", "Elizabeth", "Susan", "Jessica", "Sarah",
	"Thomas", "Charles", "Karen", "Daniel", "Matthew", "Anthony", "Donald",
	"Steven", "Paul", "Andrew", "Mark", "George", "Richard", "Kenneth", "Edward",
	"Christopher", "Brian", "Joseph", "Kevin", "Jason", "Timothy", "Jeffrey",
	"Ryan", "Jacob", "Gary", "Nicholas", "Eric", "Stephen", "Jonathan", "Larry",
	"Justin", "Scott", "Brandon", "Benjamin", "Samuel", "Gregory", "Alexander",
	"Patrick", "Frank", "Raymond", "Jack", "Dennis", "Jerry", "Tyler", "Aaron",
	"Jose", "Adam", "Nathan", "Henry", "Douglas", "Zachary", "Peter", "Kyle",
	"Walter", "Ethan", "Jeremy", "Harold", "Keith", "Christian", "Roger", "Noah",
	"Gerald", "Carl", "Terry", "Sean", "Austin", "Arthur", "Lawrence", "Jesse",
	"Dylan", "Bryan", "Joe", "Jordan", "Billy", "Bruce", "Albert", "Willie",
	"Gabriel", "Logan", "Alan", "Juan", "Wayne", "Roy", "Ralph", "Randy",
	"Eugene", "Vincent", "Russell", "Elijah", "Louis", "Bobby", "Philip",
	"Johnny", "Nancy", "Lisa", "Betty", "Margaret", "Sandra", "Ashley",
	"Kimberly", "Emily", "Donna", "Michelle", "Dorothy", "Carol", "Amanda",
	"Melissa", "Deborah", "Stephanie", "Rebecca", "Sharon", "Laura", "Cynthia",
	"Kathleen", "Amy", "Shirley", "Angela", "Helen", "Anna", "Brenda", "Pamela",
	"Nicole", "Emma", "Samantha", "Katherine", "Christine", "Debra", "Rachel",
	"Catherine", "Carolyn", "Janet", "Ruth", "Maria", "Heather", "Diane",
	"Virginia", "Julie", "Joyce", "Victoria", "Olivia", "Kelly", "Christina",
	"Lauren", "Joan", "Evelyn", "Judith", "Megan", "Cheryl", "Andrea", "Hannah",
	"Martha", "Jacqueline", "Frances", "Gloria", "Ann", "Teresa", "Kathryn",
	"Sara", "Janice", "Jean", "Alice", "Madison", "Doris", "Abigail", "Julia",
	"Judy", "Grace", "Denise", "Amber", "Marilyn", "Beverly", "Danielle",
	"Theresa", "Sophia", "Marie", "Diana", "Brittany", "Natalie", "Isabella",
	"Charlotte", "Rose", "Alexis", "Kayla",
}

var nameTitles = []string{
	`Mr\.`, `Mrs\.`, `Ms\.`, `Dr\.`, `Miss`, `Prof\.`, `Sir`, `Lady`, `Lord`,
	`Madam`, `Rev\.`, `Capt\.`, `Lt\.`, `Sgt\.`, `Col\.`,
}

var nameRoleLabels = []string{
	"Name", "Full Name", "Customer", "Client", "Patient", "Employee", "Student",
	"Applicant", "Recipient", "Sender", "Buyer", "Seller", "Owner", "User",
	"Member", "Subscriber", "Contact", "Representative",
}

var letterClosings = []string{
	"Sincerely", "Regards", "Best regards", "Yours truly", "Yours sincerely",
	"Respectfully", "Respectfully submitted", "Yours faithfully", "Thank you",
	"Thanks", "Best wishes",
}

var jobTitles = []string{
	"CEO", "CTO", "CFO", "COO", "President", "Vice President", "Director",
	"Manager", "Supervisor", "Administrator", "Coordinator", "Specialist",
	"Analyst", "Engineer", "Developer", "Consultant", "Advisor", "Associate",
	"Assistant", "Officer", "Executive", "Head", "Lead", "Chief", "Senior",
	"Junior",
}

func namePatterns() []string {
	return []string{
		// titled names
		`\b(` + strings.Join(nameTitles, "|") + `)\s[A-Z][a-z]+(?:\s[A-Z][a-z]+)*\b`,
		`\b(` + strings.Join(commonFirstNames, "|") + `)\s[A-Z][a-z]+\b`,
		// Surname, Given [M.]
		`\b[A-Z][a-z]+,\s[A-Z][a-z]+(?:\s[A-Z]\.)?\b`,
		`\b[A-Z][a-z]+\s[A-Z]\.\s[A-Z][a-z]+\b`,
		`\b[A-Z][a-z]+\s[A-Z][a-z]+\s[A-Z][a-z]+\b`,
		`\b[A-Z][a-z]+\s[A-Z][a-z]+(?:\s(Jr\.|Sr\.|I{1,3}|IV|V|VI|VII|VIII|IX|X))\b`,
		`\b(?:` + strings.Join(nameRoleLabels, "|") + `)\s*[:;-]\s*[A-Z][a-z]+(?:\s[A-Z][a-z]+)+\b`,
		// signature blocks
		`\b(?:` + strings.Join(letterClosings, "|") + `),?\s*\n+\s*[A-Z][a-z]+(?:\s[A-Z][a-z]+)+\b`,
		`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+){1,2}\s*,\s*(?:` + strings.Join(jobTitles, "|") + `)\b`,
	}
}
