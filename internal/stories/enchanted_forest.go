package stories

var enchantedForestTheme = &Theme{
	ID:            "enchanted_forest",
	TitleTemplate: "{name} and the Enchanted Forest",
	Description:   "A magical journey through whispering woods and singing streams",
	CoverPrompt:   "Book cover composition. The child named {name} stands at the edge of a mystical enchanted forest, ancient towering trees with golden sunlight filtering through the leaves, glowing fireflies and gentle magical sparkles around the child, a friendly deer watching from the shadows, mossy forest floor with wildflowers and a winding magical path.",
	Pages: []Page{
		{
			Number:    1,
			Scene:     "Finding the secret map",
			Prompt:    "Wide warm indoor shot. A sunny bedroom with toys scattered on the floor. The child named {name} is sitting on a soft rug holding a large colorful map open. Sunlight streams through the window. A teddy bear is nearby.",
			StoryText: "The morning sunshine danced through the bedroom window as {name} discovered something amazing hidden under a fuzzy rug. 'Look!' {name} shouted with excitement, 'An adventure is waiting!'",
		},
		{
			Number:    2,
			Scene:     "Examining the magical map",
			Prompt:    "Close up detail. The map shows a winding path through a forest, a purple stream, and pillow mountains. The child's finger is pointing at the 'X' mark. The map looks hand-drawn and magical.",
			StoryText: "The map was unlike anything {name} had ever seen before. It showed a winding path through an enchanted forest, a purple singing stream, and mountains that looked like soft pillows. There was even an 'X' marking the treasure spot!",
		},
		{
			Number:    3,
			Scene:     "Entering the magical forest",
			Prompt:    "Wide eye-level shot in a magical forest. Giant trees with heart-shaped leaves that sparkle. A glowing silver dust trail winds through the grass. The child named {name} is walking along the path, looking amazed.",
			StoryText: "Stepping into the enchanted forest felt like entering a dream. Giant trees with heart-shaped leaves sparkled in the sunlight, and a shimmering silver trail of magical dust wound through the emerald grass. 'So shiny!' {name} whispered in wonder.",
		},
		{
			Number:    4,
			Scene:     "Meeting the firefly guide",
			Prompt:    "Medium shot at dusk in the forest. A large friendly firefly with a warm golden glow hovers in front of the child named {name}, who reaches out a hand in greeting. Soft bokeh lights fill the background.",
			StoryText: "Suddenly a little golden light zipped through the trees and stopped right in front of {name}. It was Flicker, the friendliest firefly in the whole forest. 'Follow me,' Flicker twinkled, 'I know the way!'",
		},
		{
			Number:    5,
			Scene:     "The singing stream",
			Prompt:    "Wide shot of a sparkling purple stream winding through the forest. The child named {name} kneels at the bank listening, delighted. Musical notes seem to shimmer above the water. Stepping stones cross the stream.",
			StoryText: "The purple stream really did sing! Every ripple hummed a gentle tune as {name} hopped across the smooth stepping stones. The water giggled and splashed, cheering {name} on with every brave little jump.",
		},
		{
			Number:    6,
			Scene:     "The pillow mountains",
			Prompt:    "Wide landscape shot. Soft rounded hills that look like giant pillows in pastel colors. The child named {name} is climbing the nearest one, laughing, with the firefly glowing alongside.",
			StoryText: "Beyond the stream rose the famous pillow mountains, soft and bouncy as clouds. {name} climbed and bounced and tumbled and laughed, higher and higher, while Flicker lit the way to the very top.",
		},
		{
			Number:    7,
			Scene:     "The hidden door",
			Prompt:    "Medium shot of an ancient tree with a small round wooden door at its base, covered in glowing runes. The child named {name} crouches before it, holding the map, eyes wide with curiosity.",
			StoryText: "At the top of the tallest pillow mountain stood an ancient oak with a tiny round door. The runes on the door glowed softly as {name} held up the map. Click! The door swung open all by itself.",
		},
		{
			Number:    8,
			Scene:     "The treasure cave",
			Prompt:    "Interior shot of a cozy glowing cave filled with crystals of every color. The child named {name} stands in the middle, bathed in rainbow light, looking up in awe.",
			StoryText: "Inside, the walls sparkled with crystals of every color imaginable. Rainbow light danced across {name}'s face. But the real treasure wasn't the crystals at all. In the center of the cave sat a small wooden chest.",
		},
		{
			Number:    9,
			Scene:     "Opening the chest",
			Prompt:    "Close up shot. The child named {name} opens a small wooden chest, golden light pouring out and illuminating a joyful expression. The firefly hovers close, glowing brightly.",
			StoryText: "With trembling hands, {name} lifted the lid. Golden light poured out, and inside lay a note: 'The bravest heart in the forest earns the Explorer's Star.' A tiny star-shaped medal glowed warmly in the chest.",
		},
		{
			Number:    10,
			Scene:     "The journey home",
			Prompt:    "Wide sunset shot at the forest edge. The child named {name} walks home wearing a small glowing star medal, waving goodbye to the firefly and the forest. Warm golden hour light.",
			StoryText: "As the sun set, {name} walked home wearing the Explorer's Star, waving goodbye to Flicker and the whispering trees. The enchanted forest would always be there, waiting for its bravest explorer to return. The End.",
		},
	},
}
