package skill

import "fmt"

const (
	speechWhatNext        = "What would you like to do next?"
	speechAskDenomination = "What denomination of coin do you have?"
	speechAskCondition    = "What is the condition of the coin?"
	speechAddAnother      = "Would you like to add another coin?"
	speechAddNewReprompt  = "Would you like to add a new coin?"
	speechNoCoin          = "You don't have this coin"
	speechDeleted         = "Deleting now, What would you like to do next?"
	speechCatchAll        = "Sorry, I can't understand the command. Please try again!!"
	speechYesNoConfused   = "Sorry, I can't understand the command. Say help to receive help. What would you like to do next?"
	speechPurchaseHistory = "Something went wrong in loading your purchase history."
	speechDidNotCatch     = "I didn't catch that. What can I help you with?"
	speechUpsell          = "Adding condition to your coins is a premium feature. Want to learn more about this?"

	speechWelcome = "Welcome to Coin Collector! Lets check up with your collection. " +
		"You can add, check, or delete coins."
	speechWelcomeReprompt = "What coin do you want to add?"

	speechHelp = "To add a coin you can say 'Add a 2019 penny,' you can check what coins you have " +
		"by asking 'How many pennies do I have?' You can delete your coins by saying " +
		"'Delete my 2019 D Penny,' or to hear about all access say 'What is all access'. " +
		"So, what can I help you with?"
	speechFallback = "Sorry. I cannot help with that. " + speechHelp

	speechNothingToBuy = "There are no more products to buy. To add a coin you could say, 'add a coin', " +
		"or you can check what coins you have, for example say 'How many pennies do I have'. " +
		"So what can I help you with?"
	speechUnknownProduct         = "I don't think we have a product by that name. Can you try again?"
	speechUnknownProductReprompt = "I didn't catch that. Can you try again?"

	speechBought = "You have just bought all access which allows you to add condition to your coin description. " +
		"Try it now, say 'Add a 2019 D Penny with grading 60'"
	speechPurchaseDeclined = "Thanks for your interest in all access. Would you like to add another coin?"
	speechCancelled        = "You have successfully cancelled your subscription. What would you like to do next?"
	speechNoSubscription   = "You don't currently have a subscription. What would you like to do next?"
	speechUpsellDeclined   = "Ok. What coin would you like to add?"
	speechUpsellReprompt   = "What coin would you like to add?"

	speechBuyFailed    = "There was an error handling your purchase request. Please try again or contact us for help"
	speechCancelFailed = "There was an error handling your cancellation request. Please try again or contact us for help"
	speechUpsellFailed = "There was an error handling your Upsell request. Please try again or contact us for help."
)

var goodbyes = []string{
	"OK.  Goodbye!",
	"Have a great day!",
	"Come back again soon!",
	"Good Luck Coin Hunting!",
}

func speechAdded(year, city, coin string) string {
	return fmt.Sprintf("Adding your %s %s %s, Would you like to add another coin?", year, city, coin)
}

func speechAddedWithCondition(year, city, coin, condition string) string {
	return fmt.Sprintf("Adding your %s %s %s with condition as %s, Would you like to add another coin?",
		year, city, coin, condition)
}

func speechMatched(n int) string {
	switch n {
	case 0:
		return speechNoCoin
	case 1:
		return "You have 1 coin that matched your description"
	default:
		return fmt.Sprintf("You have %d coins that matched the description given", n)
	}
}

func speechWelcomeOwner(owned string) string {
	return fmt.Sprintf("Welcome to Coin Collector! You currently own %s. "+
		"You can add a coin or check what coins you have. "+
		"To know what else you can buy, say, 'What can i buy?'. "+
		"So, what can I help you with?", owned)
}

func speechForSale(products string) string {
	return fmt.Sprintf("Products available for purchase at this time are %s. "+
		"To learn more about all access say, 'Tell me more about all access'. "+
		"If you are ready to buy say 'Buy all access'. So what can I help you with?", products)
}

func speechProductDetail(summary, name string) (string, string) {
	return fmt.Sprintf("%s. To buy it, say Buy %s", summary, name),
		fmt.Sprintf("I didn't catch that. To buy %s, say Buy %s", name, name)
}
